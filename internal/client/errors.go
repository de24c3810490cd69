package client

import "errors"

var (
	ErrBusy             = errors.New("a request is already in progress")
	ErrWrongStep        = errors.New("action not available in the current step")
	ErrEmailRequired    = errors.New("email is required")
	ErrIncompleteCode   = errors.New("please enter the complete 6-digit code")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrAlreadyVerified  = errors.New("account already verified")
)
