package jobs

// JobFunc is a type for job function that will be executed by the scheduler.
type JobFunc func()
