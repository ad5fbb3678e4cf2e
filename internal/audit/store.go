package audit

import (
	"context"

	pkgerrors "github.com/Vumbi2018/lgis-sub001/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across implementations.
	ErrNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
)

// Store is an append-only sink. Events are immutable once written; there is
// no update or delete surface.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByRequest(ctx context.Context, requestID string) ([]Event, error)
}
