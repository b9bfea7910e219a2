package http

import (
	"log/slog"
	"net/http"

	"wastelog/internal/core"
)

type createItemRequest struct {
	VendorID int64  `json:"vendor_id"`
	Name     string `json:"name"`
}

type createItemResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	activeOnly := true
	if v := r.URL.Query().Get("active_only"); v == "false" || v == "0" {
		activeOnly = false
	}

	items, err := s.store.ListItems(r.Context(), activeOnly)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if items == nil {
		items = []core.Item{}
	}
	respondJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	item, err := s.store.CreateItem(r.Context(), req.VendorID, req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, createItemResponse{ID: item.ID, Name: item.Name})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, "Invalid item id")
		return
	}

	var patch core.ItemPatch
	if err := decodeJSON(r, &patch); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	if err := s.store.UpdateItem(r.Context(), id, patch); err != nil {
		respondError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Item patched", "id", id)
	respondJSON(w, http.StatusOK, okBody)
}
