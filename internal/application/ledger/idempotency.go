package ledger

import (
	"context"

	"github.com/google/uuid"
)

// IdempotencyStore remembers which ledger transaction a client
// idempotency key produced, so a retried append returns the original
// row instead of double-counting stock. Keys are scoped per tenant and
// expire after a configured TTL.
type IdempotencyStore interface {
	// Get returns the transaction ID previously recorded for the key,
	// and whether one was found.
	Get(ctx context.Context, tenantID uuid.UUID, key string) (uuid.UUID, bool, error)
	// Put records the transaction ID for the key.
	Put(ctx context.Context, tenantID uuid.UUID, key string, txID uuid.UUID) error
}
