package domain

import "context"

// Tx is an opaque transaction handle created by a TransactionManager and
// accepted by repository methods. A nil Tx runs the statement on the base
// connection pool. Services that need multiple statements to observe one
// consistent snapshot open a transaction and pass the handle explicitly to
// every repository call inside it.
type Tx interface{}

// TransactionManager scopes a function to a single database transaction.
// The transaction is committed when fn returns nil and rolled back otherwise.
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
