package table

import "errors"

var (
	ErrNotFound    = errors.New("chain does not exist")
	ErrExist       = errors.New("chain already exists")
	ErrBuiltin     = errors.New("operation not permitted on a built-in chain")
	ErrNotBuiltin  = errors.New("only built-in chains have a policy")
	ErrInUse       = errors.New("chain is still referenced")
	ErrNotEmpty    = errors.New("chain is not empty")
	ErrNameTooLong = errors.New("chain name too long")
	ErrEmptyName   = errors.New("chain name is empty")
	ErrReserved    = errors.New("chain name is a reserved target")
	ErrBadPolicy   = errors.New("policy must be ACCEPT or DROP")
)
