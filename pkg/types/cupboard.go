package types

import "errors"

// Tables gives access to the standard tables by name. Both a Cupboard and
// the transaction view handed to Transact satisfy it, so typed accessors can
// run inside or outside a transaction.
type Tables interface {
	// GetTable returns the Table for the given name.
	// Returns ErrTableNotFound if the name is not a standard table.
	GetTable(name string) (Table, error)
}

// Cupboard defines the interface for backend-agnostic storage access.
// Callers attach to a backend, access tables by name, and detach when done.
type Cupboard interface {
	Tables

	// Transact runs fn against a transactional view of the tables. Every
	// write made through tx is committed together when fn returns nil and
	// rolled back when fn returns an error.
	Transact(fn func(tx Tables) error) error

	// Attach connects the Cupboard to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations on tables return ErrCupboardDetached.
	Detach() error
}

// Cupboard lifecycle errors.
var (
	ErrCupboardDetached = errors.New("cupboard is detached")
	ErrAlreadyAttached  = errors.New("cupboard is already attached")
	ErrTableNotFound    = errors.New("table not found")
)
