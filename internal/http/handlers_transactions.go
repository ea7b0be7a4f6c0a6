package http

import (
	"net/http"
	"strings"
	"time"

	"myfinance/internal/core"
	"myfinance/internal/storage"
)

type transactionRequest struct {
	Type       string `json:"type"`
	Amount     int64  `json:"amount"`
	CategoryID string `json:"category_id"`
	Date       string `json:"date"`
	Notes      string `json:"notes"`
}

type categorySnapshotResponse struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

type transactionResponse struct {
	ID            string                    `json:"id"`
	Type          string                    `json:"type"`
	Amount        int64                     `json:"amount"`
	AmountDisplay string                    `json:"amount_display"`
	CategoryID    string                    `json:"category_id"`
	Category      *categorySnapshotResponse `json:"category"`
	Date          string                    `json:"date"`
	Notes         string                    `json:"notes"`
	CreatedAt     time.Time                 `json:"created_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:            t.ID,
		Type:          string(t.Type),
		Amount:        t.Amount.Units,
		AmountDisplay: core.FormatRupiah(t.Amount.Units),
		CategoryID:    t.CategoryID,
		Date:          t.Date.String(),
		Notes:         t.Notes,
		CreatedAt:     t.CreatedAt,
	}
	if t.Category != nil {
		resp.Category = &categorySnapshotResponse{
			Name:  t.Category.Name,
			Type:  string(t.Category.Type),
			Color: t.Category.Color,
		}
	}
	return resp
}

// transactionFromRequest builds the domain transaction; date parse failures
// surface as the domain's invalid-date error downstream.
func transactionFromRequest(req transactionRequest) core.Transaction {
	date, _ := core.ParseDate(req.Date)
	return core.Transaction{
		Type:       core.TxType(req.Type),
		Amount:     core.Money{Units: req.Amount},
		CategoryID: req.CategoryID,
		Date:       date,
		Notes:      strings.TrimSpace(req.Notes),
	}
}

// parseTransactionFilter reads the optional list filters from the query
// string. Unparseable dates are reported, not silently dropped.
func parseTransactionFilter(r *http.Request) (storage.TransactionFilter, error) {
	q := r.URL.Query()
	f := storage.TransactionFilter{
		Type:       core.TxType(q.Get("type")),
		CategoryID: q.Get("category_id"),
		OrderAsc:   q.Get("order") == "asc",
	}

	if v := q.Get("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.From = d
	}
	if v := q.Get("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, err
		}
		f.To = d
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date filter")
		return
	}
	if filter.Type != "" {
		if err := filter.Type.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid type filter")
			return
		}
	}

	txs, err := s.transactions.List(r.Context(), userID(r.Context()), filter)
	if err != nil {
		writeStorageError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.transactions.Get(r.Context(), userID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(*tx))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx := transactionFromRequest(req)
	err := s.transactions.Create(r.Context(), userID(r.Context()), &tx)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeStorageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tx := transactionFromRequest(req)
	tx.ID = r.PathValue("id")
	err := s.transactions.Update(r.Context(), userID(r.Context()), tx)
	if err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	err := s.transactions.Delete(r.Context(), userID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeStorageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
