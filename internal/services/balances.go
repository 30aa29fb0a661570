// Package services provides the budget calculation engine and the
// orchestration used by the API, CLI and worker.
//
// The calculation functions in this package are stateless: they read a
// Budget snapshot and never mutate it. References to account names that do
// not exist are logged and skipped so a partially inconsistent budget still
// yields results for every account that does exist.
package services

import (
	"log/slog"

	"budget/internal/core"
)

// Balances holds the monthly contribution of each flow, keyed by account name.
type Balances struct {
	Expenses  map[string]float64
	Incomes   map[string]float64
	Transfers map[string]float64
}

// Net returns income + transfer + expense for account.
func (b Balances) Net(account string) float64 {
	return b.Incomes[account] + b.Transfers[account] + b.Expenses[account]
}

// AccountSummary is an account's monthly position before and after expenses.
type AccountSummary struct {
	Account *core.Account
	Before  float64
	After   float64
}

// CalculateBalances reconciles the three independent flows per account.
// Every account is present in every map, starting at zero.
func CalculateBalances(b *core.Budget) Balances {
	res := Balances{
		Expenses:  map[string]float64{},
		Incomes:   map[string]float64{},
		Transfers: map[string]float64{},
	}
	for _, a := range b.Accounts() {
		res.Expenses[a.Name()] = 0
		res.Incomes[a.Name()] = 0
		res.Transfers[a.Name()] = 0
	}

	for _, e := range b.AllExpenses() {
		if _, ok := res.Expenses[e.Account()]; !ok {
			unmatched(b, "expense", e.ID(), e.Name(), e.Account())
			continue
		}
		res.Expenses[e.Account()] -= e.Monthly()
	}

	for _, e := range b.AllIncomes() {
		if _, ok := res.Incomes[e.Account()]; !ok {
			unmatched(b, "income", e.ID(), e.Name(), e.Account())
			continue
		}
		res.Incomes[e.Account()] += e.Monthly()
	}

	for _, t := range b.Transfers() {
		if _, ok := res.Transfers[t.Source()]; ok {
			res.Transfers[t.Source()] -= t.Amount()
		} else {
			unmatched(b, "transfer source", t.ID(), t.Name(), t.Source())
		}
		if _, ok := res.Transfers[t.Destination()]; ok {
			res.Transfers[t.Destination()] += t.Amount()
		} else {
			unmatched(b, "transfer destination", t.ID(), t.Name(), t.Destination())
		}
	}

	return res
}

// AccountSummaries lists every account with its position before expenses
// (incomes and transfers) and after expenses.
func AccountSummaries(b *core.Budget) []AccountSummary {
	bal := CalculateBalances(b)
	out := make([]AccountSummary, 0, len(b.Accounts()))
	for _, a := range b.Accounts() {
		before := bal.Incomes[a.Name()] + bal.Transfers[a.Name()]
		out = append(out, AccountSummary{
			Account: a,
			Before:  before,
			After:   before + bal.Expenses[a.Name()],
		})
	}
	return out
}

func unmatched(b *core.Budget, kind, id, name, account string) {
	slog.Warn("Skipping reference to unknown account",
		"component", "services",
		"budget_id", b.ID(),
		"kind", kind,
		"id", id,
		"name", name,
		"account", account)
}
