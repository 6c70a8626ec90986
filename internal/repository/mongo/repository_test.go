package mongo

import (
	"testing"
	"time"

	"seedrush/internal/domain"
)

func TestFundDocMapping(t *testing.T) {
	recorded := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	snapshot := domain.FundSnapshot{
		ContentID:      "abc123",
		Name:           "Holiday Photos",
		SatoshisEarned: 5000,
		SatoshisSpent:  1200,
		RecordedAt:     recorded,
	}

	doc := toDoc(snapshot)
	if doc.ContentID != "abc123" {
		t.Errorf("ContentID = %q", doc.ContentID)
	}
	if doc.RecordedAt != recorded.Unix() {
		t.Errorf("RecordedAt = %d, want %d", doc.RecordedAt, recorded.Unix())
	}

	back := fromDoc(doc)
	if back != snapshot {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", back, snapshot)
	}
}

func TestEnsureIndexesNilReceiver(t *testing.T) {
	var r *LedgerRepository
	if err := r.EnsureIndexes(t.Context()); err != nil {
		t.Errorf("nil repository EnsureIndexes = %v, want nil", err)
	}
}
