package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestPayMonths(t *testing.T) {
	cases := []struct {
		period, first int
		want          []int
	}{
		{3, 2, []int{2, 5, 8, 11}},
		{1, 1, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{12, 7, []int{7}},
		{6, 9, []int{3, 9}},
		{3, 12, []int{3, 6, 9, 12}},
		{2, 1, []int{1, 3, 5, 7, 9, 11}},
		{5, 1, []int{1, 6}},   // non-divisor keeps 12/5 occurrences
		{13, 1, []int{}},      // longer than a cycle
		{0, 1, nil},
	}
	for i, tc := range cases {
		got := PayMonths(tc.period, tc.first)
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("case %d: PayMonths(%d, %d) = %v, want %v", i, tc.period, tc.first, got, tc.want)
		}
	}
}

func TestEntryMonthly(t *testing.T) {
	e := NewEntry(EntryAttrs{Name: "Insurance", PaymentSize: 1200, PaymentPeriod: 12})
	if got := e.Monthly(); got != 100.0 {
		t.Fatalf("expected 100, got %v", got)
	}

	e = NewEntry(EntryAttrs{Name: "Gym", PaymentSize: 290, PaymentFee: 10, PaymentPeriod: 3})
	if got := e.Monthly(); got != 100.0 {
		t.Fatalf("expected fee to be included, got %v", got)
	}
}

func TestNewEntryDefaults(t *testing.T) {
	e := NewEntry(EntryAttrs{Name: "Rent", PaymentSize: 5000})
	if e.ID() == "" {
		t.Fatalf("expected generated id")
	}
	if e.PaymentPeriod() != 1 || e.FirstPaymentMonth() != 1 {
		t.Fatalf("expected defaults 1/1, got %d/%d", e.PaymentPeriod(), e.FirstPaymentMonth())
	}
	if other := NewEntry(EntryAttrs{Name: "Rent"}); other.ID() == e.ID() {
		t.Fatalf("ids must not be reused")
	}
}

func TestEntryValidate(t *testing.T) {
	good := NewEntry(EntryAttrs{Name: "ok", PaymentPeriod: 6, FirstPaymentMonth: 3})
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	drift := NewEntry(EntryAttrs{Name: "drift", PaymentPeriod: 5})
	if err := drift.Validate(); !errors.Is(err, ErrNonDivisorPeriod) {
		t.Fatalf("expected ErrNonDivisorPeriod, got %v", err)
	}
	if err := NewEntry(EntryAttrs{}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestEntrySetConvertsAndNotifies(t *testing.T) {
	e := NewEntry(EntryAttrs{Name: "Power", PaymentSize: 100})
	var events []Event
	e.RegisterOnUpdate(func(ev Event) {
		// listeners observe the new state
		if ev.Field == FieldPaymentSize && e.PaymentSize() != 250.5 {
			t.Fatalf("listener ran before assignment")
		}
		events = append(events, ev)
	})

	if err := e.Set(FieldPaymentSize, "250,5"); err != nil {
		t.Fatalf("set payment_size: %v", err)
	}
	if err := e.Set(FieldPaymentPeriod, 3.0); err != nil {
		t.Fatalf("set payment_period: %v", err)
	}
	if err := e.Set(FieldAccount, "Budget"); err != nil {
		t.Fatalf("set account: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].SourceID() != e.ID() || events[0].Value != 250.5 {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
}

func TestEntrySetRejectsInvalidInput(t *testing.T) {
	e := NewEntry(EntryAttrs{Name: "Power", PaymentSize: 100, PaymentPeriod: 1})
	fired := 0
	e.RegisterOnUpdate(func(Event) { fired++ })

	bad := []struct {
		field string
		value any
	}{
		{FieldPaymentSize, "abc"},
		{FieldPaymentPeriod, "0"},
		{FieldPaymentPeriod, 1.5},
		{FieldFirstPaymentMonth, 13},
		{FieldName, 42},
	}
	for i, tc := range bad {
		if err := e.Set(tc.field, tc.value); !errors.Is(err, ErrInvalidField) {
			t.Fatalf("case %d: expected ErrInvalidField, got %v", i, err)
		}
	}
	if err := e.Set("colour", "red"); !errors.Is(err, ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if fired != 0 {
		t.Fatalf("rejected edits must not notify, got %d events", fired)
	}
	if e.PaymentSize() != 100 || e.PaymentPeriod() != 1 || e.Name() != "Power" {
		t.Fatalf("entry mutated by rejected edit: %+v", e.Attrs())
	}
}

func TestPeriodLabels(t *testing.T) {
	if got := PeriodLabel(Quarterly); got != "Kvartalsvis" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := PeriodLabel(5); got != "every 5 months" {
		t.Fatalf("unexpected fallback label %q", got)
	}
	if !reflect.DeepEqual(Periods(), []int{1, 3, 6, 12}) {
		t.Fatalf("unexpected periods %v", Periods())
	}
}

func TestParseAccountType(t *testing.T) {
	cases := map[string]AccountType{
		"Forbrug":     AccountSpending,
		"opsparing":   AccountSavings,
		"Lønkonto":    AccountIncome,
		"budget-pool": AccountBudget,
		"savings":     AccountSavings,
	}
	for in, want := range cases {
		got, err := ParseAccountType(in)
		if err != nil || got != want {
			t.Fatalf("%q: expected %q, got %q (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseAccountType("cash"); !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected error for unknown type")
	}
}
