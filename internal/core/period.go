package core

import (
	"fmt"
	"sort"
)

// Named payment periods, in months between occurrences.
const (
	Monthly    = 1
	Quarterly  = 3
	HalfYearly = 6
	Yearly     = 12
)

// MonthsPerCycle is the length of the projection horizon.
const MonthsPerCycle = 12

// PaymentMethods lists the payment methods offered when editing an entry.
var PaymentMethods = []string{"BS", "Kort", "MobilePay", "Overførsel"}

// periodLabels maps supported periods to their display label.
var periodLabels = map[int]string{
	Monthly:    "Månedvis",
	Quarterly:  "Kvartalsvis",
	HalfYearly: "Halvårlig",
	Yearly:     "Årlig",
}

// PeriodLabel returns the label of a named period, or "every N months".
func PeriodLabel(period int) string {
	if l, ok := periodLabels[period]; ok {
		return l
	}
	return fmt.Sprintf("every %d months", period)
}

// Periods returns the named periods in ascending order.
func Periods() []int {
	out := make([]int, 0, len(periodLabels))
	for p := range periodLabels {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// RegisterPeriod adds or relabels a named period.
func RegisterPeriod(period int, label string) {
	periodLabels[period] = label
}

// DividesCycle reports whether period repeats cleanly within one year.
func DividesCycle(period int) bool {
	return period >= 1 && MonthsPerCycle%period == 0
}

// PayMonths returns the sorted 1-based months charged by a payment with the
// given period starting in firstMonth. Periods that do not divide twelve keep
// the 12/period occurrence count.
func PayMonths(period, firstMonth int) []int {
	if period < 1 {
		return nil
	}
	n := MonthsPerCycle / period
	months := make([]int, 0, n)
	for k := 0; k < n; k++ {
		m := ((firstMonth-1+k*period)%MonthsPerCycle + MonthsPerCycle) % MonthsPerCycle
		months = append(months, m+1)
	}
	sort.Ints(months)
	return months
}
