// Package postgres implements the marketplace repositories on PostgreSQL.
// Every repository can run against the pool or, through WithTx, inside a
// caller owned transaction.
package postgres

import (
	"fmt"

	"github.com/lead-marketplace/internal/domain/shared"
	"github.com/lead-marketplace/internal/platform/persistence"
)

// storeError wraps a driver error. Transient failures become retryable
// domain errors so callers can tell them apart from bugs.
func storeError(op string, err error) error {
	if persistence.IsTransient(err) {
		return shared.Retryable(err, "failed to %s", op)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
