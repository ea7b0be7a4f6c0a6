package core

import (
	"sort"
	"time"
)

// TrendMonths is the number of calendar months covered by the trend series.
const TrendMonths = 6

// RecentLimit is the default number of transactions shown as recent activity.
const RecentLimit = 5

type (
	// CategorySum is one chart-ready slice of the expense-by-category
	// breakdown.
	CategorySum struct {
		Name  string `json:"name"`
		Value int64  `json:"value"`
		Color string `json:"color"`
	}

	// TrendPoint is one calendar-month bucket of the income/expense trend.
	// Buckets are keyed by year AND month so data from different years
	// sharing a month name never collides.
	TrendPoint struct {
		Year    int    `json:"year"`
		Month   int    `json:"month"`
		Label   string `json:"label"`
		Income  int64  `json:"income"`
		Expense int64  `json:"expense"`
	}
)

// Balance folds all transactions into a single signed total: income amounts
// added, expense amounts subtracted. Empty input yields 0.
func Balance(txs []Transaction) int64 {
	var total int64
	for _, t := range txs {
		switch t.Type {
		case Income:
			total += t.Amount.Units
		case Expense:
			total -= t.Amount.Units
		}
	}
	return total
}

// FilterMonth returns the transactions whose date falls within the given
// calendar month, first and last day inclusive. Transaction dates are
// user-attributed calendar days, so they compare by their stored year and
// month, never converted through a location. The location decides which
// month "now" means at the call site; it plays no part in the comparison.
func FilterMonth(txs []Transaction, year int, month time.Month, _ *time.Location) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if t.Date.Year() == year && t.Date.Month() == month {
			out = append(out, t)
		}
	}
	return out
}

// MonthTotals sums income and expense amounts over a (typically
// month-filtered) slice.
func MonthTotals(txs []Transaction) (income, expense int64) {
	for _, t := range txs {
		switch t.Type {
		case Income:
			income += t.Amount.Units
		case Expense:
			expense += t.Amount.Units
		}
	}
	return income, expense
}

// SumByCategory groups the expense transactions in txs by category and sums
// amounts per group, resolving display name and color through the category
// set. A dangling category reference does not drop the transaction: the group
// is labeled "Uncategorized" with the neutral default color. Categories with
// no matching transactions are omitted. Output is sorted by value descending
// for the chart; ties keep first-seen order.
func SumByCategory(txs []Transaction, categories []Category) []CategorySum {
	byID := make(map[string]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	sums := make(map[string]int64)
	var seen []string
	for _, t := range txs {
		if t.Type != Expense {
			continue
		}
		if _, ok := sums[t.CategoryID]; !ok {
			seen = append(seen, t.CategoryID)
		}
		sums[t.CategoryID] += t.Amount.Units
	}

	out := make([]CategorySum, 0, len(seen))
	for _, id := range seen {
		name, color := UncategorizedLabel, DefaultCategoryColor
		if c, ok := byID[id]; ok {
			name = c.Name
			if c.Color != "" {
				color = c.Color
			}
		}
		out = append(out, CategorySum{Name: name, Value: sums[id], Color: color})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}

// BuildTrend buckets all transactions into the trailing TrendMonths calendar
// months ending at now's month, oldest first. Months outside the window are
// ignored; empty buckets report zero income and expense.
func BuildTrend(txs []Transaction, now time.Time, loc *time.Location) []TrendPoint {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	first := time.Date(now.Year(), now.Month()-(TrendMonths-1), 1, 0, 0, 0, 0, loc)

	points := make([]TrendPoint, TrendMonths)
	index := make(map[[2]int]int, TrendMonths)
	for i := range points {
		m := first.AddDate(0, i, 0)
		points[i] = TrendPoint{Year: m.Year(), Month: int(m.Month()), Label: m.Format("Jan")}
		index[[2]int{m.Year(), int(m.Month())}] = i
	}

	for _, t := range txs {
		// Calendar-day dates bucket by their stored components, same as
		// FilterMonth; only now is resolved through loc.
		i, ok := index[[2]int{t.Date.Year(), int(t.Date.Month())}]
		if !ok {
			continue
		}
		switch t.Type {
		case Income:
			points[i].Income += t.Amount.Units
		case Expense:
			points[i].Expense += t.Amount.Units
		}
	}
	return points
}

// Recent returns the n most recently dated transactions, ties broken by
// creation time descending. The input slice is not mutated.
func Recent(txs []Transaction, n int) []Transaction {
	out := make([]Transaction, len(txs))
	copy(out, txs)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n < 0 {
		n = 0
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}
