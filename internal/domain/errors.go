package domain

import "errors"

// ErrUnauthorized is returned by the backend client when the API responds with HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// ErrNotFound is returned by the backend client when the API responds with HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrInvalidJobID is returned when a job id does not match the backend id format.
var ErrInvalidJobID = errors.New("invalid job ID format")
