package http

import (
	"net/http"

	"wastelog/internal/amqp"
	"wastelog/internal/core"
	"wastelog/internal/metrics"
)

type createLogRequest struct {
	ItemID   int64   `json:"item_id"`
	Quantity *int64  `json:"quantity"`
	Reason   *string `json:"reason"`
	Notes    *string `json:"notes"`
}

type createLogResponse struct {
	ID int64 `json:"id"`
}

func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	quantity := core.DefaultQuantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	reason := core.DefaultReason
	if req.Reason != nil {
		reason = *req.Reason
	}

	id, err := s.store.CreateLog(r.Context(), req.ItemID, quantity, reason, req.Notes)
	if err != nil {
		respondError(w, r, err)
		return
	}

	metrics.RecordWasteOperation("create")
	s.publishEvent(r.Context(), id, req.ItemID, amqp.ActionCreated)
	respondJSON(w, http.StatusOK, createLogResponse{ID: id})
}

func (s *Server) handleDeleteLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "Invalid log id")
		return
	}

	if err := s.store.DeleteLog(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}

	metrics.RecordWasteOperation("delete")
	s.publishEvent(r.Context(), id, 0, amqp.ActionDeleted)
	respondJSON(w, http.StatusOK, okBody)
}

func (s *Server) handleUpdateLog(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "Invalid log id")
		return
	}

	var patch core.LogPatch
	if err := decodeJSON(r, &patch); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	if err := s.store.UpdateLog(r.Context(), id, patch); err != nil {
		respondError(w, r, err)
		return
	}

	metrics.RecordWasteOperation("update")
	s.publishEvent(r.Context(), id, 0, amqp.ActionUpdated)
	respondJSON(w, http.StatusOK, okBody)
}

func (s *Server) handleTodaysLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := s.store.TodaysLogs(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if logs == nil {
		logs = []core.WasteLog{}
	}
	respondJSON(w, http.StatusOK, logs)
}

func (s *Server) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	target, ok, err := dateQuery(r, "target_date")
	if err != nil {
		badRequest(w, "target_date must be YYYY-MM-DD")
		return
	}
	if !ok {
		target = core.Today()
	}

	totals, err := s.store.DailyTotals(r.Context(), target)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if totals == nil {
		totals = []core.DailyTotal{}
	}
	respondJSON(w, http.StatusOK, totals)
}
