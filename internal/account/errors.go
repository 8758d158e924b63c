package account

import "errors"

var (
	ErrNotFound       = errors.New("account: not found")
	ErrDuplicate      = errors.New("account: already exists")
	ErrInvalidInput   = errors.New("account: invalid input")
	ErrBadCredentials = errors.New("account: invalid password")
)
