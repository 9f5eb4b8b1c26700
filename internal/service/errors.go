package service

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrFollowSelf   = errors.New("cannot follow self")
	ErrEmailTaken   = errors.New("email already registered")
	ErrEmptyBody    = errors.New("post body is empty")
	ErrBodyTooLong  = errors.New("post body too long")
	ErrRecorderStop = errors.New("last-seen recorder stopped")
)
