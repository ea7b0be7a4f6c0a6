package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTxTypeValidate(t *testing.T) {
	if err := Income.Validate(); err != nil {
		t.Fatalf("income: %v", err)
	}
	if err := Expense.Validate(); err != nil {
		t.Fatalf("expense: %v", err)
	}
	if err := TxType("transfer").Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-07-15")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.July || d.Day() != 15 {
		t.Fatalf("parsed %s", d)
	}
	if d.String() != "2024-07-15" {
		t.Fatalf("round trip = %s", d.String())
	}

	for _, bad := range []string{"", "15-07-2024", "2024-13-01", "yesterday"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestCategoryValidate(t *testing.T) {
	good := Category{Name: "Makanan", Type: Expense, Color: "#ef4444", Icon: IconUtensils}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		c    Category
		want error
	}{
		{Category{Name: "", Type: Expense, Color: "#fff"}, ErrEmptyName},
		{Category{Name: "  ", Type: Expense, Color: "#fff"}, ErrEmptyName},
		{Category{Name: "x", Type: "other", Color: "#fff"}, ErrInvalidType},
		{Category{Name: "x", Type: Income, Color: ""}, ErrEmptyColor},
	}
	for i, tc := range cases {
		if err := tc.c.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Type:       Expense,
		Amount:     Money{Units: 50_000},
		CategoryID: "cat-1",
		Date:       NewDate(2024, time.July, 15),
		Notes:      "makan siang",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*Transaction)
		want   error
	}{
		{func(x *Transaction) { x.Type = "swap" }, ErrInvalidType},
		{func(x *Transaction) { x.Amount = Money{} }, ErrInvalidAmount},
		{func(x *Transaction) { x.CategoryID = "" }, ErrMissingCategory},
		{func(x *Transaction) { x.Date = Date{} }, ErrInvalidDate},
		{func(x *Transaction) { x.Notes = strings.Repeat("a", MaxNotesLen+1) }, ErrNotesTooLong},
	}
	for i, tc := range cases {
		x := good
		tc.mutate(&x)
		if err := x.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestParseIcon(t *testing.T) {
	if got := ParseIcon("wallet"); got != IconWallet {
		t.Fatalf("got %s", got)
	}
	if got := ParseIcon("Sparkles"); got != IconOther {
		t.Fatalf("unknown icon should map to other, got %s", got)
	}
	if !IconGift.Valid() {
		t.Fatalf("gift should be valid")
	}
	if Icon("nope").Valid() {
		t.Fatalf("unknown icon should be invalid")
	}
}
