package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetdesk/exporter/pkg/delivery"
	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/record"
)

// Source is the history source of exports started over HTTP.
const Source = "http"

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes one error.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ListResponse is the body of GET /v1/exports.
type ListResponse struct {
	Jobs   []*history.Job `json:"jobs"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	filename := r.URL.Query().Get("filename")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, "bad_request", "failed to read request body")
		return
	}

	input, err := decodeRecords(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, export.StatusInvalidInput, err.Error())
		return
	}

	ctx := history.WithSource(r.Context(), Source)
	err = s.dispatcher.ExportTo(ctx, delivery.NewHTTPSink(w), input, format, filename)
	if err == nil {
		return
	}

	switch status := export.Classify(err); status {
	case export.StatusInvalidInput, export.StatusUnsupportedFormat:
		writeError(w, http.StatusBadRequest, status, err.Error())
	case export.StatusEncodeError:
		writeError(w, http.StatusInternalServerError, status, err.Error())
	default:
		// The attachment headers are already on the wire.
		s.logger.WarnContext(ctx, "export response interrupted", "error", err)
	}
}

// decodeRecords keeps record key order when the body is an array of
// objects. Other well-formed JSON is passed on as a generic value so the
// dispatcher rejects and records it like any other invalid input.
func decodeRecords(body []byte) (any, error) {
	rs, err := record.ParseJSON(body)
	if err == nil {
		return rs, nil
	}
	var v any
	if jsonErr := json.Unmarshal(body, &v); jsonErr != nil {
		return nil, err
	}
	return v, nil
}

func (s *Server) handleListExports(w http.ResponseWriter, r *http.Request) {
	query, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	jobs, err := s.store.List(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to list export history", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to list export history")
		return
	}
	total, err := s.store.Count(r.Context(), query)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "failed to count export history", "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to count export history")
		return
	}

	limit := query.Limit
	if limit == 0 {
		limit = history.DefaultLimit
	}
	writeJSON(w, http.StatusOK, ListResponse{Jobs: jobs, Total: total, Limit: limit, Offset: query.Offset})
}

func (s *Server) handleGetExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.Get(r.Context(), id)
	switch {
	case errors.Is(err, history.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", fmt.Sprintf("export job %q not found", id))
	case err != nil:
		s.logger.ErrorContext(r.Context(), "failed to get export job", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "storage_error", "failed to get export job")
	default:
		writeJSON(w, http.StatusOK, job)
	}
}

// parseQuery reads history filters: status, format, source, since, until
// (RFC 3339), limit, offset and order (asc|desc).
func parseQuery(r *http.Request) (*history.Query, error) {
	q := r.URL.Query()
	query := &history.Query{
		Status:    q.Get("status"),
		Format:    q.Get("format"),
		Source:    q.Get("source"),
		SortOrder: q.Get("order"),
	}

	switch query.SortOrder {
	case "", "asc", "desc":
	default:
		return nil, fmt.Errorf("order must be asc or desc, got %q", query.SortOrder)
	}

	for name, dst := range map[string]**time.Time{"since": &query.StartTime, "until": &query.EndTime} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("%s must be an RFC 3339 timestamp: %w", name, err)
		}
		*dst = &t
	}

	for name, dst := range map[string]*int{"limit": &query.Limit, "offset": &query.Offset} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer, got %q", name, v)
		}
		*dst = n
	}
	if query.Limit > history.DefaultLimit {
		query.Limit = history.DefaultLimit
	}
	return query, nil
}

func writeError(w http.ResponseWriter, code int, errType, message string) {
	writeJSON(w, code, ErrorBody{Error: ErrorDetail{Type: errType, Message: message}})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
