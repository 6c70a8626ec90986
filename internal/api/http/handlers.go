package apihttp

import (
	"net/http"

	"seedrush/internal/domain"
	"seedrush/internal/usecase"
	"seedrush/internal/view"
)

type sessionListResponse struct {
	view.Projection
	Stats   domain.AggregateStats `json:"stats"`
	Version uint64                `json:"version"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := view.Query{
		StatusFilter: r.URL.Query().Get("status"),
		Search:       r.URL.Query().Get("search"),
	}
	sessions, stats := s.registry.Snapshot()
	writeJSON(w, http.StatusOK, sessionListResponse{
		Projection: view.Project(sessions, q),
		Stats:      stats,
		Version:    s.registry.Version(),
	})
}

func (s *Server) handleRefreshSessions(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Refresh(r.Context()); err != nil {
		writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.registry.Get(domain.ContentID(r.PathValue("id")))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleToggleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.registry.Get(domain.ContentID(r.PathValue("id")))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	if err := s.controls.ToggleStatus(r.Context(), session); err != nil {
		writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRequestRemoval(w http.ResponseWriter, r *http.Request) {
	session, err := s.registry.Get(domain.ContentID(r.PathValue("id")))
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	var body struct {
		DeleteFiles bool `json:"deleteFiles"`
	}
	if r.ContentLength > 0 {
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
			return
		}
	}
	req := s.controls.RequestRemoval(session, body.DeleteFiles)
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handlePendingRemoval(w http.ResponseWriter, r *http.Request) {
	req, ok := s.controls.PendingRemoval()
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", "no removal pending")
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleConfirmRemoval(w http.ResponseWriter, r *http.Request) {
	if err := s.controls.ConfirmRemoval(r.Context()); err != nil {
		writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCancelRemoval(w http.ResponseWriter, r *http.Request) {
	s.controls.CancelRemoval()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	id := s.controls.Selected()
	if id == "" {
		writeJSON(w, http.StatusOK, map[string]any{"selected": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"selected": id})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	id := domain.ContentID(r.PathValue("id"))
	if _, err := s.registry.Get(id); err != nil {
		writeWorkflowError(w, err)
		return
	}
	s.controls.Select(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	s.controls.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

type acquireStateResponse struct {
	State   usecase.AcquireState   `json:"state"`
	Preview *domain.ContentPreview `json:"preview,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func (s *Server) handleAcquireState(w http.ResponseWriter, r *http.Request) {
	resp := acquireStateResponse{
		State: s.acquire.State(),
		Error: s.acquire.ErrorMessage(),
	}
	if preview, ok := s.acquire.Preview(); ok {
		resp.Preview = &preview
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAcquireSubmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ref string `json:"ref"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	preview, err := s.acquire.Submit(r.Context(), body.Ref)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

func (s *Server) handleAcquireConfirm(w http.ResponseWriter, r *http.Request) {
	if err := s.acquire.Confirm(r.Context()); err != nil {
		writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAcquireCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.acquire.Cancel(); err != nil {
		writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type publishStateResponse struct {
	State    usecase.PublishState `json:"state"`
	Path     string               `json:"path,omitempty"`
	PriceRaw string               `json:"priceRaw,omitempty"`
	ShareRef string               `json:"shareRef,omitempty"`
	Price    uint64               `json:"pricePerPiece,omitempty"`
	Error    string               `json:"error,omitempty"`
}

func (s *Server) handlePublishState(w http.ResponseWriter, r *http.Request) {
	resp := publishStateResponse{
		State:    s.publish.State(),
		Path:     s.publish.Path(),
		PriceRaw: s.publish.PriceRaw(),
		Error:    s.publish.ErrorMessage(),
	}
	if ref, price, ok := s.publish.Result(); ok {
		resp.ShareRef = ref
		resp.Price = price
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublishSelectPath(w http.ResponseWriter, r *http.Request) {
	path, err := s.publish.SelectPath(r.Context())
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (s *Server) handlePublishCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Price string `json:"price"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	ref, err := s.publish.Create(r.Context(), body.Price)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"shareRef": ref})
}

func (s *Server) handlePublishReset(w http.ResponseWriter, r *http.Request) {
	s.publish.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWalletState(w http.ResponseWriter, r *http.Request) {
	if s.wallet == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "wallet not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.wallet.State())
}

func (s *Server) handleWalletRefresh(w http.ResponseWriter, r *http.Request) {
	if s.walletCtrl == nil || s.wallet == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "wallet not configured")
		return
	}
	if err := s.walletCtrl.RefreshBalance(r.Context()); err != nil {
		writeWorkflowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.wallet.State())
}

func (s *Server) handleWalletFunds(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount int64 `json:"amount"`
	}
	if s.walletCtrl == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "wallet not configured")
		return
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return
	}
	if err := s.walletCtrl.RequestFunds(r.Context(), body.Amount); err != nil {
		writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", "fund ledger not configured")
		return
	}
	snapshots, err := s.ledger.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ledger_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleOpenDownloads(w http.ResponseWriter, r *http.Request) {
	if err := s.controls.OpenStorageLocation(r.Context()); err != nil {
		writeWorkflowError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
