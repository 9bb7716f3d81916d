package common

import "errors"

var (
	// Storage-level errors.
	ErrorMissingUUID   = errors.New("payload has no uuid")
	ErrorCorruptRecord = errors.New("corrupt stored record")

	// Adapter stubs that the runtime must never need in this tool.
	ErrNotSupported = errors.New("not supported in this environment")
)
