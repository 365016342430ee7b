package api

import "errors"

// ErrBadRequest marks client input the API rejects.
var ErrBadRequest = errors.New("bad request")
