// Package enginehttp talks to the transfer engine's local HTTP API and
// event stream.
package enginehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"seedrush/internal/domain"
)

// Client implements the engine gateway over its JSON REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a gateway client for the engine at baseURL. The transport
// is traced; per-call deadlines are the caller's responsibility via ctx.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   2 * time.Minute,
		},
	}
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type sessionDoc struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	TotalSize    int64   `json:"totalSize"`
	Progress     float64 `json:"progress"`
	Status       string  `json:"status"`
	IsPaused     bool    `json:"isPaused"`
	DownloadRate int64   `json:"downloadRate"`
	UploadRate   int64   `json:"uploadRate"`
	PeerCount    int     `json:"peerCount"`
	SeedCount    int     `json:"seedCount"`
	ETASeconds   int64   `json:"etaSeconds"`
	Files        []struct {
		Name     string  `json:"name"`
		Path     string  `json:"path"`
		Size     int64   `json:"size"`
		Progress float64 `json:"progress"`
	} `json:"files"`
	SatoshisEarned uint64 `json:"satoshisEarned"`
	SatoshisSpent  uint64 `json:"satoshisSpent"`
	PricePerPiece  uint64 `json:"pricePerPiece"`
	AddedAt        int64  `json:"addedAt"`
}

func (d sessionDoc) toDomain() domain.Session {
	s := domain.Session{
		ID:              d.ID,
		ContentID:       domain.ContentID(d.ID),
		Name:            d.Name,
		TotalSize:       d.TotalSize,
		SizeStr:         domain.FormatBytes(d.TotalSize),
		Progress:        d.Progress,
		Status:          domain.SessionStatus(d.Status),
		IsPaused:        d.IsPaused,
		DownloadRate:    d.DownloadRate,
		DownloadRateStr: domain.FormatRate(d.DownloadRate),
		UploadRate:      d.UploadRate,
		UploadRateStr:   domain.FormatRate(d.UploadRate),
		PeerCount:       d.PeerCount,
		SeedCount:       d.SeedCount,
		ETA:             domain.FormatETA(time.Duration(d.ETASeconds) * time.Second),
		SatoshisEarned:  d.SatoshisEarned,
		SatoshisSpent:   d.SatoshisSpent,
		PricePerPiece:   d.PricePerPiece,
		AddedAt:         time.Unix(d.AddedAt, 0),
	}
	for _, f := range d.Files {
		s.Files = append(s.Files, domain.FileEntry{
			Name:     f.Name,
			Path:     f.Path,
			Size:     f.Size,
			SizeStr:  domain.FormatBytes(f.Size),
			Progress: f.Progress,
		})
	}
	return s
}

func (c *Client) SubmitContent(ctx context.Context, ref string) error {
	return c.do(ctx, http.MethodPost, "/torrents", map[string]string{"magnet": ref}, nil)
}

func (c *Client) PreviewContent(ctx context.Context, ref string) (domain.ContentPreview, error) {
	var doc struct {
		Name            string `json:"name"`
		ContentID       string `json:"contentId"`
		TotalSize       int64  `json:"totalSize"`
		TotalPieceCount uint64 `json:"totalPieceCount"`
		PricePerPiece   uint64 `json:"pricePerPiece"`
	}
	path := "/torrents/preview?magnet=" + url.QueryEscape(ref)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return domain.ContentPreview{}, err
	}
	return domain.ContentPreview{
		Name:            doc.Name,
		ContentID:       domain.ContentID(doc.ContentID),
		TotalSize:       doc.TotalSize,
		SizeStr:         domain.FormatBytes(doc.TotalSize),
		TotalPieceCount: doc.TotalPieceCount,
		PricePerPiece:   doc.PricePerPiece,
	}, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]domain.Session, error) {
	var docs []sessionDoc
	if err := c.do(ctx, http.MethodGet, "/torrents", nil, &docs); err != nil {
		return nil, err
	}
	sessions := make([]domain.Session, 0, len(docs))
	for _, d := range docs {
		sessions = append(sessions, d.toDomain())
	}
	return sessions, nil
}

func (c *Client) FetchStats(ctx context.Context) (domain.AggregateStats, error) {
	var doc struct {
		TotalDownloadRate  int64 `json:"totalDownloadRate"`
		TotalUploadRate    int64 `json:"totalUploadRate"`
		ActiveSessionCount int   `json:"activeSessionCount"`
		TotalPeerCount     int   `json:"totalPeerCount"`
	}
	if err := c.do(ctx, http.MethodGet, "/stats", nil, &doc); err != nil {
		return domain.AggregateStats{}, err
	}
	return domain.AggregateStats{
		TotalDownloadRateStr: domain.FormatRate(doc.TotalDownloadRate),
		TotalUploadRateStr:   domain.FormatRate(doc.TotalUploadRate),
		ActiveSessionCount:   doc.ActiveSessionCount,
		TotalPeerCount:       doc.TotalPeerCount,
	}, nil
}

func (c *Client) PauseSession(ctx context.Context, id domain.ContentID) error {
	return c.do(ctx, http.MethodPost, "/torrents/"+url.PathEscape(string(id))+"/pause", nil, nil)
}

func (c *Client) ResumeSession(ctx context.Context, id domain.ContentID) error {
	return c.do(ctx, http.MethodPost, "/torrents/"+url.PathEscape(string(id))+"/resume", nil, nil)
}

func (c *Client) RemoveSession(ctx context.Context, id domain.ContentID, deleteFiles bool) error {
	path := fmt.Sprintf("/torrents/%s?deleteFiles=%t", url.PathEscape(string(id)), deleteFiles)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) OpenStorageLocation(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/system/open-downloads", nil, nil)
}

func (c *Client) SelectPublishPath(ctx context.Context) (string, error) {
	var doc struct {
		Path string `json:"path"`
	}
	if err := c.do(ctx, http.MethodPost, "/system/select-path", nil, &doc); err != nil {
		return "", err
	}
	return doc.Path, nil
}

func (c *Client) CreateShare(ctx context.Context, path string, pricePerPiece uint64) (string, error) {
	var doc struct {
		Magnet string `json:"magnet"`
	}
	body := map[string]any{"path": path, "pricePerPiece": pricePerPiece}
	if err := c.do(ctx, http.MethodPost, "/shares", body, &doc); err != nil {
		return "", err
	}
	return doc.Magnet, nil
}

func (c *Client) FetchWalletState(ctx context.Context) (domain.WalletState, error) {
	var doc struct {
		Address string `json:"address"`
		Balance uint64 `json:"balance"`
	}
	if err := c.do(ctx, http.MethodGet, "/wallet", nil, &doc); err != nil {
		return domain.WalletState{}, err
	}
	return domain.WalletState{Address: doc.Address, Balance: doc.Balance}, nil
}

func (c *Client) RequestFunds(ctx context.Context, amount uint64) error {
	return c.do(ctx, http.MethodPost, "/wallet/funds", map[string]uint64{"amount": amount}, nil)
}

func (c *Client) SyncWallet(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/wallet/sync", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("engine request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if decErr := json.NewDecoder(resp.Body).Decode(&apiErr); decErr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("engine %s: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("engine returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
