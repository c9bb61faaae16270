package ledger

import (
	"context"

	"github.com/craftledger/backend/internal/domain/catalog"
	"github.com/craftledger/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to the ledger's
// repositories. When a function is executed within a scope, all
// repository operations join the same database transaction and commit
// or roll back atomically. The scope is what makes "insert ledger row
// + update cached stock" a single unit.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories that
// participate in a ledger write. Both share the same underlying
// database transaction, so the row lock taken through ItemRepo holds
// until TransactionRepo's insert commits with it.
type TransactionalRepositories interface {
	// ItemRepo returns the item repository scoped to the current transaction
	ItemRepo() catalog.ItemRepository
	// TransactionRepo returns the ledger repository scoped to the current transaction
	TransactionRepo() ledger.TransactionRepository
}

// NoOpTransactionScope runs the function without a real transaction.
// Useful for tests and for databases that serialize writers anyway.
type NoOpTransactionScope struct {
	itemRepo        catalog.ItemRepository
	transactionRepo ledger.TransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	itemRepo catalog.ItemRepository,
	transactionRepo ledger.TransactionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		itemRepo:        itemRepo,
		transactionRepo: transactionRepo,
	}
}

// Execute runs the function directly against the wrapped repositories.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ItemRepo returns the item repository.
func (s *NoOpTransactionScope) ItemRepo() catalog.ItemRepository {
	return s.itemRepo
}

// TransactionRepo returns the ledger transaction repository.
func (s *NoOpTransactionScope) TransactionRepo() ledger.TransactionRepository {
	return s.transactionRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
