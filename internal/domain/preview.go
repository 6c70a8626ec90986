package domain

// ContentPreview is the ephemeral cost estimate shown before a transfer is
// confirmed. It is informational only: the acquire flow always submits the
// original content reference, never the preview.
type ContentPreview struct {
	Name            string    `json:"name"`
	ContentID       ContentID `json:"contentId"`
	TotalSize       int64     `json:"totalSize"`
	SizeStr         string    `json:"sizeStr"`
	PricePerPiece   uint64    `json:"pricePerPiece"`
	TotalPieceCount uint64    `json:"totalPieceCount"`
}

// EstimatedCost is the full acquisition cost in satoshis.
func (p ContentPreview) EstimatedCost() uint64 {
	return p.PricePerPiece * p.TotalPieceCount
}

// EstimatedCostStr renders the estimated cost for display.
func (p ContentPreview) EstimatedCostStr() string {
	return FormatSats(p.EstimatedCost())
}
