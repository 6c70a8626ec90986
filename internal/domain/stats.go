package domain

// AggregateStats is recomputed wholesale by the remote engine on every
// refresh; the client never updates it incrementally.
type AggregateStats struct {
	TotalDownloadRateStr string `json:"totalDownloadRate"`
	TotalUploadRateStr   string `json:"totalUploadRate"`
	ActiveSessionCount   int    `json:"activeSessions"`
	TotalPeerCount       int    `json:"totalPeers"`
}
