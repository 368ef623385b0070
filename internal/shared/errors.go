package shared

import "errors"

var (
	// ErrNotLoggedIn indicates the request carried no bearer token.
	ErrNotLoggedIn = errors.New("not logged in")
)
