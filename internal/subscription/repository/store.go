package repository

import (
	"context"
	"fmt"

	"github.com/terang55/rainbow-rich-auth-server/internal/subscription"
)

// Store is the capability set every subscription backend provides. Get
// returns nil, nil when the subject has no record.
type Store interface {
	Get(ctx context.Context, scope, subjectID string) (*subscription.Record, error)
	Put(ctx context.Context, scope, subjectID string, rec *subscription.Record) error
	Patch(ctx context.Context, scope, subjectID string, p subscription.Patch) error
	Delete(ctx context.Context, scope, subjectID string) error
	List(ctx context.Context, scope string) ([]subscription.Record, error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", subscription.ErrStoreUnavailable, op, err)
}
