package reels

import "errors"

var (
	ErrUnknownItem = errors.New("item not in feed")
	ErrNotMounted  = errors.New("item not mounted")
	ErrClosed      = errors.New("session closed")
)
