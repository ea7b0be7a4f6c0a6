package http

import (
	"net/http"

	"myfinance/internal/core"
	"myfinance/internal/log"
)

type dashboardResponse struct {
	Year                int                   `json:"year"`
	Month               int                   `json:"month"`
	Balance             int64                 `json:"balance"`
	BalanceDisplay      string                `json:"balance_display"`
	MonthIncome         int64                 `json:"month_income"`
	MonthIncomeDisplay  string                `json:"month_income_display"`
	MonthExpense        int64                 `json:"month_expense"`
	MonthExpenseDisplay string                `json:"month_expense_display"`
	ByCategory          []core.CategorySum    `json:"by_category"`
	Trend               []core.TrendPoint     `json:"trend"`
	Recent              []transactionResponse `json:"recent"`
}

// handleDashboard returns the aggregated view for the requested month,
// defaulting to the current month in the configured timezone.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r, s.loc)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := s.dashboards.Fetch(r.Context(), userID(r.Context()), year, month)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "dashboard fetch failed",
			log.FieldYear, year,
			log.FieldMonth, int(month),
			log.FieldError, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	recent := make([]transactionResponse, 0, len(snap.Recent))
	for _, t := range snap.Recent {
		recent = append(recent, toTransactionResponse(t))
	}

	writeJSON(w, http.StatusOK, dashboardResponse{
		Year:                snap.Year,
		Month:               snap.Month,
		Balance:             snap.Balance,
		BalanceDisplay:      core.FormatRupiah(snap.Balance),
		MonthIncome:         snap.MonthIncome,
		MonthIncomeDisplay:  core.FormatRupiah(snap.MonthIncome),
		MonthExpense:        snap.MonthExpense,
		MonthExpenseDisplay: core.FormatRupiah(snap.MonthExpense),
		ByCategory:          snap.ByCategory,
		Trend:               snap.Trend,
		Recent:              recent,
	})
}
