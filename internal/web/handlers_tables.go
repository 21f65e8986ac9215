package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/rowstore/internal/core"
	"github.com/JonMunkholm/rowstore/internal/web/middleware"
)

// createTableRequest is the body of POST /api/tables.
type createTableRequest struct {
	Name   string          `json:"name"`
	Sample json.RawMessage `json:"sample"`
}

// handleHealth reports whether the backing workbook is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Ping(r.Context()); err != nil {
		logError(r, err, http.StatusServiceUnavailable)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus returns the write limiter state.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"writes": s.service.WriteLimiterStatus()})
}

// handleListTables returns the table names in workbook order.
func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	names, err := s.service.ListTables(r.Context())
	if err != nil {
		respondAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"data": names})
}

// handleCreateTable creates a table from a name and a sample record.
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Write.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondAPIError(w, r, err)
		return
	}

	var req createTableRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondAPIError(w, r, &core.Error{Kind: core.ErrInvalidPayload, Message: "Invalid JSON", Debug: err.Error()})
		return
	}
	sample, err := core.DecodeRecord(req.Sample)
	if err != nil {
		respondAPIError(w, r, err)
		return
	}

	info, err := s.service.CreateTable(ctx, req.Name, sample)
	if err != nil {
		respondAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// handleTableSchema describes one table.
func (s *Server) handleTableSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" {
		middleware.WriteJSONError(w, http.StatusBadRequest, "missing table name")
		return
	}

	desc, err := s.service.DescribeTable(r.Context(), name)
	if err != nil {
		respondAPIError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}
