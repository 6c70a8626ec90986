package ports

import (
	"context"

	"seedrush/internal/domain"
)

// FundLedger keeps the latest per-session satoshi tallies so earnings
// survive client restarts.
type FundLedger interface {
	RecordSnapshot(ctx context.Context, snap domain.FundSnapshot) error
	List(ctx context.Context) ([]domain.FundSnapshot, error)
}
