package stereogum

import (
	"errors"
	"fmt"

	"github.com/samgozman/release-thread/registry"
	"github.com/samgozman/release-thread/scavenger"
)

// diagnostic is a structural miss together with the message shown to the reader.
type diagnostic struct {
	msg string
	err *scavenger.Error
}

func (d *diagnostic) Error() string {
	return d.err.Error()
}

func (d *diagnostic) Unwrap() error {
	return d.err
}

// newMiss creates a structural miss error carrying msg.
func newMiss(msg string, cause error) error {
	return &diagnostic{
		msg: msg,
		err: scavenger.NewError(Name, scavenger.ErrStructuralMiss, errors.New(msg), cause),
	}
}

// failed builds the degraded registry for an error returned by a locate step.
func failed(err error) *registry.Registry {
	var d *diagnostic
	if errors.As(err, &d) {
		return registry.NewWithMessage(d.msg)
	}
	return registry.NewWithMessage(fmt.Sprintf("Error scraping Stereogum: %v", err))
}

// fail returns an empty registry with msg and the classified error.
func fail(msg string, kind error, cause error) (*registry.Registry, error) {
	return registry.NewWithMessage(msg), scavenger.NewError(Name, kind, cause)
}
