package core

import (
	"fmt"
	"strings"
)

// EntryAttrs is the plain value form of an Entry, used to construct and
// restore entries.
type EntryAttrs struct {
	ID                string
	Name              string
	PaymentSize       float64
	PaymentPeriod     int
	FirstPaymentMonth int
	PaymentFee        float64
	PaymentMethod     string
	Account           string
	Tag               string
	Owner             string
}

// Entry is one recurring payment, income or expense.
type Entry struct {
	Observable
	id                string
	name              string
	paymentSize       float64
	paymentPeriod     int
	firstPaymentMonth int
	paymentFee        float64
	paymentMethod     string
	account           string
	tag               string
	owner             string
}

// NewEntry builds an entry from attrs. A missing id is generated; a zero
// period or first month defaults to 1.
func NewEntry(a EntryAttrs) *Entry {
	if a.ID == "" {
		a.ID = NewID()
	}
	if a.PaymentPeriod == 0 {
		a.PaymentPeriod = Monthly
	}
	if a.FirstPaymentMonth == 0 {
		a.FirstPaymentMonth = 1
	}
	return &Entry{
		id:                a.ID,
		name:              a.Name,
		paymentSize:       a.PaymentSize,
		paymentPeriod:     a.PaymentPeriod,
		firstPaymentMonth: a.FirstPaymentMonth,
		paymentFee:        a.PaymentFee,
		paymentMethod:     a.PaymentMethod,
		account:           a.Account,
		tag:               a.Tag,
		owner:             a.Owner,
	}
}

// Attrs returns a copy of the entry's fields.
func (e *Entry) Attrs() EntryAttrs {
	return EntryAttrs{
		ID:                e.id,
		Name:              e.name,
		PaymentSize:       e.paymentSize,
		PaymentPeriod:     e.paymentPeriod,
		FirstPaymentMonth: e.firstPaymentMonth,
		PaymentFee:        e.paymentFee,
		PaymentMethod:     e.paymentMethod,
		Account:           e.account,
		Tag:               e.tag,
		Owner:             e.owner,
	}
}

func (e *Entry) ID() string             { return e.id }
func (e *Entry) Name() string           { return e.name }
func (e *Entry) PaymentSize() float64   { return e.paymentSize }
func (e *Entry) PaymentPeriod() int     { return e.paymentPeriod }
func (e *Entry) FirstPaymentMonth() int { return e.firstPaymentMonth }
func (e *Entry) PaymentFee() float64    { return e.paymentFee }
func (e *Entry) PaymentMethod() string  { return e.paymentMethod }
func (e *Entry) Account() string        { return e.account }
func (e *Entry) Tag() string            { return e.tag }
func (e *Entry) Owner() string          { return e.owner }

// Monthly is the entry's cost spread evenly over its period.
func (e *Entry) Monthly() float64 {
	period := e.paymentPeriod
	if period < 1 {
		period = 1
	}
	return (e.paymentSize + e.paymentFee) / float64(period)
}

// PayMonths returns the sorted 1-based months in which the entry is charged.
func (e *Entry) PayMonths() []int {
	return PayMonths(e.paymentPeriod, e.firstPaymentMonth)
}

// ChargedIn reports whether the entry is charged in month (1-12).
func (e *Entry) ChargedIn(month int) bool {
	for _, m := range e.PayMonths() {
		if m == month {
			return true
		}
	}
	return false
}

// Validate flags entries whose schedule drifts or is unusable.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.name) == "" {
		return ErrEmptyName
	}
	if e.paymentPeriod < 1 {
		return ErrInvalidPeriod
	}
	if e.firstPaymentMonth < 1 || e.firstPaymentMonth > MonthsPerCycle {
		return ErrInvalidMonth
	}
	if !DividesCycle(e.paymentPeriod) {
		return fmt.Errorf("%w: %d", ErrNonDivisorPeriod, e.paymentPeriod)
	}
	return nil
}

func (e *Entry) SetName(name string) {
	e.name = name
	e.notify(e, FieldName, name)
}

func (e *Entry) SetPaymentSize(size float64) {
	e.paymentSize = size
	e.notify(e, FieldPaymentSize, size)
}

func (e *Entry) SetPaymentPeriod(period int) {
	e.paymentPeriod = period
	e.notify(e, FieldPaymentPeriod, period)
}

func (e *Entry) SetFirstPaymentMonth(month int) {
	e.firstPaymentMonth = month
	e.notify(e, FieldFirstPaymentMonth, month)
}

func (e *Entry) SetPaymentFee(fee float64) {
	e.paymentFee = fee
	e.notify(e, FieldPaymentFee, fee)
}

func (e *Entry) SetPaymentMethod(method string) {
	e.paymentMethod = method
	e.notify(e, FieldPaymentMethod, method)
}

func (e *Entry) SetAccount(account string) {
	e.account = account
	e.notify(e, FieldAccount, account)
}

func (e *Entry) SetTag(tag string) {
	e.tag = tag
	e.notify(e, FieldTag, tag)
}

func (e *Entry) SetOwner(owner string) {
	e.owner = owner
	e.notify(e, FieldOwner, owner)
}

// Set converts value to the field's type and assigns it. Invalid input
// leaves the entry untouched and fires no event.
func (e *Entry) Set(field string, value any) error {
	switch field {
	case FieldName, FieldPaymentMethod, FieldAccount, FieldTag, FieldOwner:
		s, err := toString(field, value)
		if err != nil {
			return err
		}
		switch field {
		case FieldName:
			e.SetName(s)
		case FieldPaymentMethod:
			e.SetPaymentMethod(s)
		case FieldAccount:
			e.SetAccount(s)
		case FieldTag:
			e.SetTag(s)
		case FieldOwner:
			e.SetOwner(s)
		}
	case FieldPaymentSize, FieldPaymentFee:
		f, err := toFloat(field, value)
		if err != nil {
			return err
		}
		if field == FieldPaymentSize {
			e.SetPaymentSize(f)
		} else {
			e.SetPaymentFee(f)
		}
	case FieldPaymentPeriod:
		p, err := toInt(field, value)
		if err != nil {
			return err
		}
		if p < 1 {
			return fmt.Errorf("%w: %w", ErrInvalidField, ErrInvalidPeriod)
		}
		e.SetPaymentPeriod(p)
	case FieldFirstPaymentMonth:
		m, err := toInt(field, value)
		if err != nil {
			return err
		}
		if m < 1 || m > MonthsPerCycle {
			return fmt.Errorf("%w: %w", ErrInvalidField, ErrInvalidMonth)
		}
		e.SetFirstPaymentMonth(m)
	default:
		return fmt.Errorf("%w: entry.%s", ErrUnknownField, field)
	}
	return nil
}
