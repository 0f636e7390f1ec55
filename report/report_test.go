package report

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tricountapi/go-tricount/bunq"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func amt(value string) *bunq.Amount {
	return &bunq.Amount{Value: value, Currency: "EUR"}
}

func memberItem(name string) bunq.MembershipItem {
	return bunq.MembershipItem{NonUser: &bunq.Membership{
		ID:    1,
		Alias: bunq.Alias{DisplayName: name, Pointer: bunq.Pointer{Name: name}},
	}}
}

func alloc(name, value string) bunq.Allocation {
	return bunq.Allocation{Membership: memberItem(name), Amount: amt(value)}
}

func activeEntry(id int64, date, category, value, payer string, allocs ...bunq.Allocation) bunq.EntryItem {
	return bunq.EntryItem{Entry: &bunq.RegistryEntry{
		ID:              id,
		Status:          "ACTIVE",
		Date:            date,
		TypeTransaction: "NORMAL",
		Category:        category,
		Amount:          amt(value),
		Owner:           memberItem(payer),
		Allocations:     allocs,
	}}
}

func TestMonthlyCategoryNets(t *testing.T) {
	otherMonth := activeEntry(3, "2025-06-30 09:00:00", "GROCERIES", "-99.00", "Alice")
	deleted := activeEntry(4, "2025-07-12 09:00:00", "GROCERIES", "-5.00", "Alice")
	deleted.Entry.Status = "DELETED"
	customCategory := activeEntry(2, "2025-07-10 20:00:00", "OTHER", "-10.00", "Alice")
	customCategory.Entry.CategoryCustom = "Beer"

	reg := &bunq.Registry{AllEntries: []bunq.EntryItem{
		activeEntry(1, "2025-07-03 18:22:10", "GROCERIES", "-25.50", "Alice"),
		customCategory,
		otherMonth,
		deleted,
		activeEntry(5, "2025-07-20 12:00:00", "REFUND", "20.00", "Alice"),
		activeEntry(6, "2025-07-21 12:00:00", "GROCERIES", "0.00", "Alice"),
	}}

	b, err := Monthly(reg, "2025-07", discardLogger())
	require.NoError(t, err)

	require.Len(t, b.ByCategory, 3)
	require.InDelta(t, 25.50, b.ByCategory["GROCERIES"], 1e-9)
	require.InDelta(t, 10.00, b.ByCategory["Beer"], 1e-9)
	require.InDelta(t, -20.00, b.ByCategory["REFUND"], 1e-9)

	require.InDelta(t, 35.50, b.Totals.Expenses, 1e-9)
	require.InDelta(t, 20.00, b.Totals.Incomes, 1e-9)
	require.InDelta(t, 15.50, b.Totals.Net, 1e-9)
}

func TestMonthlyPayersAndBeneficiaries(t *testing.T) {
	reg := &bunq.Registry{AllEntries: []bunq.EntryItem{
		activeEntry(1, "2025-07-05 19:30:00", "RESTAURANT", "-60.00", "Alice",
			alloc("Alice", "-20.00"), alloc("Bob", "-40.00")),
		activeEntry(2, "2025-07-06 08:15:00", "TRANSPORT", "-10.00", "Bob"),
	}}

	b, err := Monthly(reg, "2025-07", discardLogger())
	require.NoError(t, err)

	require.InDelta(t, 60.00, b.ByPayer["Alice"], 1e-9)
	require.InDelta(t, 10.00, b.ByPayer["Bob"], 1e-9)

	// The dinner is split by its allocations; the unallocated taxi falls
	// back to the payer.
	require.InDelta(t, 20.00, b.ByBeneficiary["Alice"], 1e-9)
	require.InDelta(t, 50.00, b.ByBeneficiary["Bob"], 1e-9)
}

func TestMonthlyWarnsOnAllocationMismatch(t *testing.T) {
	reg := &bunq.Registry{AllEntries: []bunq.EntryItem{
		activeEntry(9, "2025-07-05 19:30:00", "RESTAURANT", "-60.00", "Alice",
			alloc("Alice", "-20.00"), alloc("Bob", "-30.00")),
	}}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	b, err := Monthly(reg, "2025-07", logger)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "do not sum")

	// The entry still aggregates with the shares it declares.
	require.InDelta(t, 60.00, b.ByPayer["Alice"], 1e-9)
	require.InDelta(t, 30.00, b.ByBeneficiary["Bob"], 1e-9)
}

func TestMonthlyStatusHandling(t *testing.T) {
	noStatus := activeEntry(1, "2025-07-01 10:00:00", "GROCERIES", "-8.00", "Alice")
	noStatus.Entry.Status = ""

	reg := &bunq.Registry{AllEntries: []bunq.EntryItem{noStatus}}

	b, err := Monthly(reg, "2025-07", discardLogger())
	require.NoError(t, err)
	require.InDelta(t, 8.00, b.ByCategory["GROCERIES"], 1e-9)
}

func TestMonthlyPrefersLocalAmount(t *testing.T) {
	e := activeEntry(1, "2025-07-01 10:00:00", "TRAVEL", "-999.00", "Alice")
	e.Entry.AmountLocal = amt("-10.00")

	reg := &bunq.Registry{AllEntries: []bunq.EntryItem{e}}

	b, err := Monthly(reg, "2025-07", discardLogger())
	require.NoError(t, err)
	require.InDelta(t, 10.00, b.ByCategory["TRAVEL"], 1e-9)
}

func TestMonthlyBalanceTransfersCount(t *testing.T) {
	balance := activeEntry(1, "2025-07-15 11:00:00", "", "-15.00", "Bob", alloc("Alice", "-15.00"))
	balance.Entry.TypeTransaction = "BALANCE"

	reg := &bunq.Registry{AllEntries: []bunq.EntryItem{balance}}

	b, err := Monthly(reg, "2025-07", discardLogger())
	require.NoError(t, err)

	// Settle-up payments move money between members, so they show up in
	// payer and beneficiary nets, under the fallback category.
	require.InDelta(t, 15.00, b.ByPayer["Bob"], 1e-9)
	require.InDelta(t, 15.00, b.ByBeneficiary["Alice"], 1e-9)
	require.InDelta(t, 15.00, b.ByCategory["Uncategorized"], 1e-9)
}

func TestMonthlyDateParsing(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		counted bool
	}{
		{name: "plain timestamp", date: "2025-07-03 18:22:10", counted: true},
		{name: "fractional second", date: "2025-07-03 18:22:10.215235", counted: true},
		{name: "wrong month", date: "2025-08-01 00:00:00", counted: false},
		{name: "empty", date: "", counted: false},
		{name: "garbage", date: "yesterday", counted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := &bunq.Registry{AllEntries: []bunq.EntryItem{
				activeEntry(1, tt.date, "GROCERIES", "-5.00", "Alice"),
			}}

			b, err := Monthly(reg, "2025-07", discardLogger())
			require.NoError(t, err)
			if tt.counted {
				require.InDelta(t, 5.00, b.ByCategory["GROCERIES"], 1e-9)
			} else {
				require.Empty(t, b.ByCategory)
			}
		})
	}
}

func TestMonthlyRejectsBadMonth(t *testing.T) {
	reg := &bunq.Registry{}

	_, err := Monthly(reg, "2025-13", discardLogger())
	require.Error(t, err)
	_, err = Monthly(reg, "July 2025", discardLogger())
	require.Error(t, err)
}

func TestRanked(t *testing.T) {
	lines := Ranked(map[string]float64{
		"Groceries":  5,
		"Restaurant": 10,
		"Transport":  5,
		"Refund":     -3,
	})

	require.Equal(t, []Line{
		{Label: "Restaurant", Net: 10},
		{Label: "Groceries", Net: 5},
		{Label: "Transport", Net: 5},
		{Label: "Refund", Net: -3},
	}, lines)
}
