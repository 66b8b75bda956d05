package fetcher

import "errors"

var (
	errNewRequest    = errors.New("error creating request")
	errDoRequest     = errors.New("error sending request")
	errStatusCode    = errors.New("invalid status code")
	errReadBody      = errors.New("error reading response body")
	errRenderSession = errors.New("error rendering page")
)
