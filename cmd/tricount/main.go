// Command tricount fetches a tricount by its share key and prints the
// member list plus a monthly spending report.
//
// Usage:
//
//	tricount [-month YYYY-MM] <tricount-key>
//
// Environment variables:
//
//	TRICOUNT_KEY     share key, used when no argument is given
//	TRICOUNT_APP_ID  stable app installation id; a throwaway identity is
//	                 registered per run when unset
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"time"

	tricount "github.com/tricountapi/go-tricount"
	"github.com/tricountapi/go-tricount/pkg/logging"
	"github.com/tricountapi/go-tricount/report"
)

const fetchTimeout = time.Minute

func main() {
	month := flag.String("month", time.Now().Format("2006-01"), "month to report on (YYYY-MM)")
	flag.Parse()

	logger := logging.Setup()

	key := flag.Arg(0)
	if key == "" {
		key = os.Getenv("TRICOUNT_KEY")
	}
	if key == "" {
		fmt.Fprintln(os.Stderr, "usage: tricount [-month YYYY-MM] <tricount-key>")
		fmt.Fprintln(os.Stderr, "the key can also be supplied via TRICOUNT_KEY")
		os.Exit(2)
	}

	client, err := tricount.New(key,
		tricount.WithAppID(os.Getenv("TRICOUNT_APP_ID")),
		tricount.WithLogger(logger),
	)
	if err != nil {
		slog.Error("Failed to build client", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if err := client.Refresh(ctx); err != nil {
		slog.Error("Failed to fetch tricount", "error", err)
		os.Exit(1)
	}

	doc, err := client.Data()
	if err != nil {
		slog.Error("No document after refresh", "error", err)
		os.Exit(1)
	}
	reg, ok := doc.Registry()
	if !ok {
		slog.Error("Document carries no registry")
		os.Exit(1)
	}
	fmt.Printf("Tricount: %s (%s)\n", reg.Title, reg.Currency)

	users, err := client.Users()
	if err != nil {
		slog.Error("Failed to list members", "error", err)
		os.Exit(1)
	}
	ids := sortedIDs(users)
	fmt.Println("\nMembers:")
	for _, id := range ids {
		fmt.Printf("  %-4s %s\n", id, users[id])
	}

	amounts, err := client.Expenses()
	if err != nil {
		slog.Error("Failed to list expenses", "error", err)
		os.Exit(1)
	}
	fmt.Printf("\nExpenses: %d entries, total %.2f\n", len(amounts), sum(amounts))
	for _, id := range ids {
		share, err := client.ExpensesFor(id)
		if err != nil {
			slog.Error("Failed to list member expenses", "member", id, "error", err)
			os.Exit(1)
		}
		fmt.Printf("  %-24s %10.2f\n", users[id], sum(share))
	}

	b, err := report.Monthly(reg, *month, logger)
	if err != nil {
		slog.Error("Failed to build report", "month", *month, "error", err)
		os.Exit(1)
	}

	fmt.Printf("\nReport for %s\n", b.Month)
	printRanked("By category", b.ByCategory)
	printRanked("Paid by", b.ByPayer)
	printRanked("Spent on", b.ByBeneficiary)
	fmt.Printf("\nTotals: expenses %.2f, incomes %.2f, net %.2f\n",
		b.Totals.Expenses, b.Totals.Incomes, b.Totals.Net)
}

func sum(amounts []float64) float64 {
	var total float64
	for _, a := range amounts {
		total += a
	}
	return total
}

// sortedIDs orders member ids numerically, the way the app lists members.
func sortedIDs(users map[string]string) []string {
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aErr := strconv.Atoi(ids[i])
		b, bErr := strconv.Atoi(ids[j])
		if aErr != nil || bErr != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})
	return ids
}

func printRanked(title string, nets map[string]float64) {
	if len(nets) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, line := range report.Ranked(nets) {
		fmt.Printf("  %-24s %10.2f\n", line.Label, line.Net)
	}
}
