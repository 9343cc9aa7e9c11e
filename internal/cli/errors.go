package cli

import "errors"

var (
	errUnknownLockMode = errors.New("cli: unknown lock mode")
	errUnknownTestKind = errors.New("cli: unknown test kind")
)
