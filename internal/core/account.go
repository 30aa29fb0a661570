package core

import (
	"fmt"
	"strings"
)

// AccountType classifies an account. The value is what gets persisted.
type AccountType string

const (
	AccountSpending AccountType = "Forbrug"
	AccountSavings  AccountType = "Opsparing"
	AccountIncome   AccountType = "Lønkonto"
	AccountBudget   AccountType = "Budget"
)

// AccountTypes returns every known account type.
func AccountTypes() []AccountType {
	return []AccountType{AccountSpending, AccountSavings, AccountIncome, AccountBudget}
}

func (t AccountType) String() string {
	return string(t)
}

// ParseAccountType accepts the persisted value or the English name, case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	s = strings.TrimSpace(s)
	for _, t := range AccountTypes() {
		if strings.EqualFold(s, string(t)) {
			return t, nil
		}
	}
	switch strings.ToLower(s) {
	case "spending":
		return AccountSpending, nil
	case "savings":
		return AccountSavings, nil
	case "income":
		return AccountIncome, nil
	case "budget", "budget-pool":
		return AccountBudget, nil
	}
	return "", fmt.Errorf("%w: unknown account type %q", ErrInvalidField, s)
}

// Account is a named money-holding bucket.
type Account struct {
	Observable
	id    string
	name  string
	owner string
	typ   AccountType
}

// NewAccount creates an account with a fresh id.
func NewAccount(name, owner string, typ AccountType) *Account {
	return RestoreAccount(NewID(), name, owner, typ)
}

// RestoreAccount rebuilds an account with a known id.
func RestoreAccount(id, name, owner string, typ AccountType) *Account {
	if id == "" {
		id = NewID()
	}
	return &Account{id: id, name: name, owner: owner, typ: typ}
}

func (a *Account) ID() string        { return a.id }
func (a *Account) Name() string      { return a.name }
func (a *Account) Owner() string     { return a.owner }
func (a *Account) Type() AccountType { return a.typ }

func (a *Account) SetName(name string) {
	a.name = name
	a.notify(a, FieldName, name)
}

func (a *Account) SetOwner(owner string) {
	a.owner = owner
	a.notify(a, FieldOwner, owner)
}

func (a *Account) SetType(t AccountType) {
	a.typ = t
	a.notify(a, FieldType, t)
}

// Set converts value and assigns it to field. Nothing changes on error.
func (a *Account) Set(field string, value any) error {
	switch field {
	case FieldName, FieldOwner:
		s, err := toString(field, value)
		if err != nil {
			return err
		}
		if field == FieldName {
			a.SetName(s)
		} else {
			a.SetOwner(s)
		}
	case FieldType:
		s, err := toString(field, value)
		if err != nil {
			return err
		}
		t, err := ParseAccountType(s)
		if err != nil {
			return err
		}
		a.SetType(t)
	default:
		return fmt.Errorf("%w: account.%s", ErrUnknownField, field)
	}
	return nil
}
