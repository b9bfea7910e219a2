package http

import (
	"net/http"

	"wastelog/internal/core"
)

type createVendorRequest struct {
	Name string `json:"name"`
}

type createVendorResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := s.store.ListVendors(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if vendors == nil {
		vendors = []core.Vendor{}
	}
	respondJSON(w, http.StatusOK, vendors)
}

func (s *Server) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var req createVendorRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "Invalid request body")
		return
	}

	vendor, err := s.store.CreateVendor(r.Context(), req.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, createVendorResponse{ID: vendor.ID, Name: vendor.Name})
}
