package ports

import (
	"context"

	"seedrush/internal/domain"
)

// Gateway is the remote engine boundary: the only source of truth for
// sessions, aggregate stats and the wallet. Every call is bounded by the
// caller's context; cancelling the context abandons the underlying request.
type Gateway interface {
	// SubmitContent begins a transfer for a content reference.
	SubmitContent(ctx context.Context, ref string) error
	// PreviewContent resolves a content reference into a cost preview
	// without starting a transfer.
	PreviewContent(ctx context.Context, ref string) (domain.ContentPreview, error)
	ListSessions(ctx context.Context) ([]domain.Session, error)
	FetchStats(ctx context.Context) (domain.AggregateStats, error)
	PauseSession(ctx context.Context, id domain.ContentID) error
	ResumeSession(ctx context.Context, id domain.ContentID) error
	RemoveSession(ctx context.Context, id domain.ContentID, deleteFiles bool) error
	// OpenStorageLocation asks the host OS to reveal the download directory.
	OpenStorageLocation(ctx context.Context) error
	// SelectPublishPath opens the host path picker. An empty path with a nil
	// error means the user cancelled.
	SelectPublishPath(ctx context.Context) (string, error)
	// CreateShare publishes a local path at the given per-piece price and
	// returns the shareable content reference.
	CreateShare(ctx context.Context, path string, pricePerPiece uint64) (string, error)
	FetchWalletState(ctx context.Context) (domain.WalletState, error)
	RequestFunds(ctx context.Context, amount uint64) error
	// SyncWallet asks the engine to reconcile the wallet against the chain;
	// completion is signalled later through the wallet-updated push channel.
	SyncWallet(ctx context.Context) error
}
