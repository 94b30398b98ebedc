package domain

import "errors"

var (
	// ErrOptimisticLock is returned by repositories when the stored version
	// differs from the one the caller read.
	ErrOptimisticLock = errors.New("optimistic lock conflict")

	// ErrOutOfStock is returned when a guarded stock decrement matches no row.
	ErrOutOfStock = errors.New("stock exhausted")

	ErrDuplicateKey = errors.New("duplicate key")
)
