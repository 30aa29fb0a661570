package services

import (
	"fmt"
	"sort"

	"budget/internal/core"
)

// MonthlySeries holds one value per month; index 0 is January.
type MonthlySeries [core.MonthsPerCycle]float64

// Min returns the smallest value in the series.
func (s MonthlySeries) Min() float64 {
	m := s[0]
	for _, v := range s[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Sum returns the total of the series.
func (s MonthlySeries) Sum() float64 {
	var total float64
	for _, v := range s {
		total += v
	}
	return total
}

// Projection is the twelve-month outlook for one account.
type Projection struct {
	Account  string
	Expenses MonthlySeries
	Incomes  MonthlySeries
	Saldo    MonthlySeries
	// BufferNeeded is the balance required at the start of the cycle so the
	// account never goes negative.
	BufferNeeded float64
}

// Monthly returns the expense and income flow of account per month. Expense
// entries are charged in full in each of their pay months; transfers are
// flat monthly flows.
func Monthly(b *core.Budget, account string) (expenses, incomes MonthlySeries, err error) {
	if !b.HasAccountName(account) {
		return expenses, incomes, fmt.Errorf("%w: %q", core.ErrAccountNotFound, account)
	}

	for _, e := range b.AllExpenses() {
		if e.Account() != account {
			continue
		}
		for _, m := range e.PayMonths() {
			expenses[m-1] += e.PaymentSize() + e.PaymentFee()
		}
	}

	for _, t := range b.Transfers() {
		switch account {
		case t.Source():
			for i := range expenses {
				expenses[i] += t.Amount()
			}
		case t.Destination():
			for i := range incomes {
				incomes[i] += t.Amount()
			}
		}
	}

	return expenses, incomes, nil
}

// ExpectedSaldo projects the running balance over the cycle and shifts it so
// the lowest point of the year is exactly zero. The result answers how large
// a buffer is needed at the start of the cycle, not an absolute balance.
func ExpectedSaldo(expenses, incomes MonthlySeries) MonthlySeries {
	var saldo MonthlySeries
	saldo[0] = -expenses[0]
	for i := 1; i < len(saldo); i++ {
		saldo[i] = saldo[i-1] - expenses[i] + incomes[i]
	}
	low := saldo.Min()
	for i := range saldo {
		saldo[i] -= low
	}
	return saldo
}

// ProjectAccount bundles the monthly flows and the saldo for account.
func ProjectAccount(b *core.Budget, account string) (Projection, error) {
	expenses, incomes, err := Monthly(b, account)
	if err != nil {
		return Projection{}, err
	}
	saldo := ExpectedSaldo(expenses, incomes)
	return Projection{
		Account:      account,
		Expenses:     expenses,
		Incomes:      incomes,
		Saldo:        saldo,
		BufferNeeded: saldo[0] + expenses[0],
	}, nil
}

// MonthlyMovements groups the expense entries charged to account by month.
// Only entries with a positive payment size are listed. A nil months slice
// means every month. Each list is ordered by period, then name.
func MonthlyMovements(b *core.Budget, account string, months []int) map[int][]*core.Entry {
	if months == nil {
		months = make([]int, core.MonthsPerCycle)
		for i := range months {
			months[i] = i + 1
		}
	}
	wanted := make(map[int]bool, len(months))
	for _, m := range months {
		wanted[m] = true
	}

	groups := map[int][]*core.Entry{}
	for _, e := range b.AllExpenses() {
		if e.Account() != account || e.PaymentSize() <= 0 {
			continue
		}
		for _, m := range e.PayMonths() {
			if wanted[m] {
				groups[m] = append(groups[m], e)
			}
		}
	}
	for _, entries := range groups {
		SortMovements(entries)
	}
	return groups
}

// SortMovements orders entries by payment period, then name.
func SortMovements(entries []*core.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].PaymentPeriod() != entries[j].PaymentPeriod() {
			return entries[i].PaymentPeriod() < entries[j].PaymentPeriod()
		}
		return entries[i].Name() < entries[j].Name()
	})
}

// MovementsTotal sums the payment sizes of entries.
func MovementsTotal(entries []*core.Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.PaymentSize()
	}
	return total
}
