package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"myfinance/internal/core"
	"myfinance/internal/storage"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a bounded request body, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeStorageError maps storage errors onto status codes. Unexpected errors
// become opaque 500s.
func writeStorageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrCategoryInUse):
		writeError(w, http.StatusConflict, "category still referenced by transactions")
	case errors.Is(err, storage.ErrDuplicateCategory):
		writeError(w, http.StatusConflict, "category name already exists")
	case errors.Is(err, storage.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidType, core.ErrInvalidAmount, core.ErrInvalidDate,
		core.ErrMissingCategory, core.ErrNotesTooLong,
		core.ErrEmptyName, core.ErrEmptyColor,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// parseYearMonth resolves the requested dashboard month, defaulting to the
// current month in loc. A month outside 1..12 is a client error.
func parseYearMonth(r *http.Request, loc *time.Location) (int, time.Month, error) {
	now := time.Now().In(loc)
	year, month := now.Year(), now.Month()

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, errors.New("invalid year")
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, errors.New("invalid month")
		}
		month = time.Month(m)
	}
	return year, month, nil
}
