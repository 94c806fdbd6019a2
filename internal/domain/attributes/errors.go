package attributes

import "errors"

var (
	ErrDefinitionNotFound = errors.New("attribute definition not found")
	// ErrKeyExhaustion means every candidate suffix up to MaxKeySuffix is taken.
	ErrKeyExhaustion = errors.New("attribute key space exhausted")
	// ErrKeyConflict is a unique index violation on (account_id, attribute_key)
	// raised at insert, after the free-key search already ran.
	ErrKeyConflict = errors.New("attribute key already exists")
	ErrPersistence = errors.New("attribute definition persistence failed")
)
