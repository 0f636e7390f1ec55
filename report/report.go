// Package report derives monthly breakdowns from a tricount registry: net
// amounts by category, by payer and by beneficiary, plus month totals.
//
// The wire format stores spending as negative values. Reports flip the
// sign, so a positive net reads as money spent and a negative net as money
// received.
package report

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tricountapi/go-tricount/bunq"
)

const (
	dateLayout  = "2006-01-02 15:04:05"
	monthLayout = "2006-01"

	uncategorized = "Uncategorized"

	// allocationTolerance bounds the accepted drift between an entry
	// amount and the sum of its allocations before a warning is logged.
	allocationTolerance = 1e-6
)

// Breakdown aggregates one month of a registry.
type Breakdown struct {
	// Month is the aggregated month in "2006-01" form.
	Month string

	// ByCategory holds the net amount per category label, ByPayer the net
	// per paying member and ByBeneficiary the net per member the spending
	// was allocated to.
	ByCategory    map[string]float64
	ByPayer       map[string]float64
	ByBeneficiary map[string]float64

	Totals Totals
}

// Totals summarizes a breakdown. Expenses collects the positive category
// nets, Incomes the flipped negative ones; Net is their difference.
type Totals struct {
	Expenses float64
	Incomes  float64
	Net      float64
}

// Line is one row of a ranked breakdown table.
type Line struct {
	Label string
	Net   float64
}

// Monthly aggregates the registry entries of one month, given in "2006-01"
// form. Only entries with status ACTIVE (or no status) count; balance
// transfers count like any other entry, so settle-up payments show up in
// payer and beneficiary nets.
//
// Entries whose allocations do not add up to the entry amount are still
// aggregated, with a warning through logger.
func Monthly(reg *bunq.Registry, month string, logger *slog.Logger) (*Breakdown, error) {
	if _, err := time.Parse(monthLayout, month); err != nil {
		return nil, fmt.Errorf("parse month %q: %w", month, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	b := &Breakdown{
		Month:         month,
		ByCategory:    make(map[string]float64),
		ByPayer:       make(map[string]float64),
		ByBeneficiary: make(map[string]float64),
	}

	for _, item := range reg.AllEntries {
		e := item.Entry
		if e == nil {
			continue
		}
		if e.Status != "" && e.Status != "ACTIVE" {
			continue
		}
		entryMonth, ok := monthOf(e.Date)
		if !ok || entryMonth != month {
			continue
		}

		amount := amountOf(e.AmountLocal, e.Amount)
		if amount == 0 {
			continue
		}
		signed := -amount

		category := e.CategoryCustom
		if category == "" {
			category = e.Category
		}
		if category == "" {
			category = uncategorized
		}
		b.ByCategory[category] += signed

		payer := e.Owner.NonUser.DisplayName()
		b.ByPayer[payer] += signed

		if len(e.Allocations) == 0 {
			b.ByBeneficiary[payer] += signed
			continue
		}

		var allocated float64
		for _, alloc := range e.Allocations {
			share := amountOf(alloc.AmountLocal, alloc.Amount)
			allocated += share
			if share == 0 {
				continue
			}
			b.ByBeneficiary[alloc.Membership.NonUser.DisplayName()] += -share
		}
		if math.Abs(allocated-amount) > allocationTolerance {
			logger.Warn("entry allocations do not sum to entry amount",
				"entry_id", e.ID,
				"amount", amount,
				"allocated", allocated,
			)
		}
	}

	for _, net := range b.ByCategory {
		if net > 0 {
			b.Totals.Expenses += net
		} else {
			b.Totals.Incomes += -net
		}
		b.Totals.Net += net
	}
	return b, nil
}

// Ranked turns a net map into lines sorted by descending net, largest
// spending first. Ties order alphabetically so output is stable.
func Ranked(nets map[string]float64) []Line {
	lines := make([]Line, 0, len(nets))
	for label, net := range nets {
		lines = append(lines, Line{Label: label, Net: net})
	}
	sort.Slice(lines, func(i, j int) bool {
		if lines[i].Net != lines[j].Net {
			return lines[i].Net > lines[j].Net
		}
		return lines[i].Label < lines[j].Label
	})
	return lines
}

// monthOf extracts the month of an entry timestamp. The wire format is
// "2006-01-02 15:04:05", sometimes with a fractional second, which
// time.Parse accepts without a layout change.
func monthOf(date string) (string, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(date))
	if err != nil {
		return "", false
	}
	return t.Format(monthLayout), true
}

// amountOf picks the local-currency amount when present, the tricount
// amount otherwise. Reports tolerate broken amounts as zero rather than
// failing the whole month.
func amountOf(local, base *bunq.Amount) float64 {
	if v, err := local.Float64(); err == nil {
		return v
	}
	if v, err := base.Float64(); err == nil {
		return v
	}
	return 0
}
