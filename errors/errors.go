package errors

import "fmt"

var (
	ErrWorkerPanic        = fmt.Errorf("worker panic")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrInvalidPassword    = fmt.Errorf("password does not meet complexity rules")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
	ErrGroupNotFound      = fmt.Errorf("group not found")
	ErrNotGroupAdmin      = fmt.Errorf("caller is not the group admin")
	ErrMemberCount        = fmt.Errorf("a group needs between 1 and 5 invited members")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrEmptyWords         = fmt.Errorf("no censored words have been found")
)
