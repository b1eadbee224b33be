package site

import "errors"

// ErrPageNotFound signals a URL with no page in the current snapshot.
var ErrPageNotFound = errors.New("page not found")
