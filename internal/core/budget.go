package core

import (
	"fmt"
	"maps"
)

// Budget is the aggregate root. It exclusively owns its groups, transfers and
// accounts.
type Budget struct {
	Observable
	id             string
	name           string
	expenses       []*EntryGroup
	incomes        []*EntryGroup
	transfers      []*Transfer
	accounts       []*Account
	budgetAccounts []string
	extra          map[string]any

	wiredGroups    map[*EntryGroup]bool
	wiredTransfers map[*Transfer]bool
}

// NewBudget creates an empty budget with a fresh id.
func NewBudget(name string) *Budget {
	return RestoreBudget(NewID(), name)
}

// RestoreBudget creates an empty budget with a known id.
func RestoreBudget(id, name string) *Budget {
	if id == "" {
		id = NewID()
	}
	return &Budget{
		id:             id,
		name:           name,
		extra:          map[string]any{},
		wiredGroups:    map[*EntryGroup]bool{},
		wiredTransfers: map[*Transfer]bool{},
	}
}

func (b *Budget) ID() string   { return b.id }
func (b *Budget) Name() string { return b.name }

func (b *Budget) SetName(name string) {
	b.name = name
	b.notify(b, FieldName, name)
}

// Set converts value and assigns it to field. Only the name is editable.
func (b *Budget) Set(field string, value any) error {
	if field != FieldName {
		return fmt.Errorf("%w: budget.%s", ErrUnknownField, field)
	}
	s, err := toString(field, value)
	if err != nil {
		return err
	}
	b.SetName(s)
	return nil
}

func (b *Budget) ExpenseGroups() []*EntryGroup { return append([]*EntryGroup(nil), b.expenses...) }
func (b *Budget) IncomeGroups() []*EntryGroup  { return append([]*EntryGroup(nil), b.incomes...) }
func (b *Budget) Transfers() []*Transfer       { return append([]*Transfer(nil), b.transfers...) }
func (b *Budget) Accounts() []*Account         { return append([]*Account(nil), b.accounts...) }

// AddExpenseGroup attaches g and re-emits its changes under "expenses".
func (b *Budget) AddExpenseGroup(g *EntryGroup) {
	b.expenses = append(b.expenses, g)
	b.wireGroup(g)
	b.notify(b, FieldExpenses, b.ExpenseGroups())
}

// AddIncomeGroup attaches g and re-emits its changes under "incomes".
func (b *Budget) AddIncomeGroup(g *EntryGroup) {
	b.incomes = append(b.incomes, g)
	b.wireGroup(g)
	b.notify(b, FieldIncomes, b.IncomeGroups())
}

// wireGroup forwards group events under whichever collection currently owns it.
func (b *Budget) wireGroup(g *EntryGroup) {
	if b.wiredGroups[g] {
		return
	}
	b.wiredGroups[g] = true
	g.RegisterOnUpdate(func(Event) {
		switch {
		case containsGroup(b.expenses, g):
			b.notify(b, FieldExpenses, b.ExpenseGroups())
		case containsGroup(b.incomes, g):
			b.notify(b, FieldIncomes, b.IncomeGroups())
		}
	})
}

// AddTransfer attaches t and re-emits its changes under "transfers".
func (b *Budget) AddTransfer(t *Transfer) {
	b.transfers = append(b.transfers, t)
	if !b.wiredTransfers[t] {
		b.wiredTransfers[t] = true
		t.RegisterOnUpdate(func(Event) {
			for _, x := range b.transfers {
				if x == t {
					b.notify(b, FieldTransfers, b.Transfers())
					return
				}
			}
		})
	}
	b.notify(b, FieldTransfers, b.Transfers())
}

// AddAccount appends an account. Account edits are not forwarded.
func (b *Budget) AddAccount(a *Account) {
	b.accounts = append(b.accounts, a)
	b.notify(b, FieldAccounts, b.Accounts())
}

// RestoreAccounts appends accounts without firing events; used when loading.
func (b *Budget) RestoreAccounts(accounts ...*Account) {
	b.accounts = append(b.accounts, accounts...)
}

// RemoveAccount removes the account with the given id.
func (b *Budget) RemoveAccount(id string) error {
	for i, a := range b.accounts {
		if a.id == id {
			b.accounts = append(b.accounts[:i:i], b.accounts[i+1:]...)
			b.notify(b, FieldAccounts, b.Accounts())
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
}

// DeleteEntry removes an entry from whichever income or expense group holds it.
func (b *Budget) DeleteEntry(id string) error {
	for _, g := range b.incomes {
		if g.DeleteEntry(id) {
			return nil
		}
	}
	for _, g := range b.expenses {
		if g.DeleteEntry(id) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
}

func (b *Budget) DeleteTransfer(id string) error {
	for i, t := range b.transfers {
		if t.id == id {
			b.transfers = append(b.transfers[:i:i], b.transfers[i+1:]...)
			b.notify(b, FieldTransfers, b.Transfers())
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrTransferNotFound, id)
}

func (b *Budget) DeleteExpenseGroup(id string) error {
	groups, ok := removeGroup(b.expenses, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	b.expenses = groups
	b.notify(b, FieldExpenses, b.ExpenseGroups())
	return nil
}

func (b *Budget) DeleteIncomeGroup(id string) error {
	groups, ok := removeGroup(b.incomes, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrGroupNotFound, id)
	}
	b.incomes = groups
	b.notify(b, FieldIncomes, b.IncomeGroups())
	return nil
}

// ExpenseGroup looks up an expense group by id.
func (b *Budget) ExpenseGroup(id string) (*EntryGroup, bool) {
	return findGroup(b.expenses, id)
}

// IncomeGroup looks up an income group by id.
func (b *Budget) IncomeGroup(id string) (*EntryGroup, bool) {
	return findGroup(b.incomes, id)
}

// Entry looks up an entry by id across all groups.
func (b *Budget) Entry(id string) (*Entry, bool) {
	for _, g := range append(b.ExpenseGroups(), b.incomes...) {
		if e, ok := g.Entry(id); ok {
			return e, true
		}
	}
	return nil, false
}

func (b *Budget) Transfer(id string) (*Transfer, bool) {
	for _, t := range b.transfers {
		if t.id == id {
			return t, true
		}
	}
	return nil, false
}

func (b *Budget) Account(id string) (*Account, bool) {
	for _, a := range b.accounts {
		if a.id == id {
			return a, true
		}
	}
	return nil, false
}

// AccountByName returns the first account with the given name.
func (b *Budget) AccountByName(name string) (*Account, bool) {
	for _, a := range b.accounts {
		if a.name == name {
			return a, true
		}
	}
	return nil, false
}

// HasAccountName reports whether name is a structured or legacy account.
func (b *Budget) HasAccountName(name string) bool {
	if _, ok := b.AccountByName(name); ok {
		return true
	}
	for _, n := range b.budgetAccounts {
		if n == name {
			return true
		}
	}
	return false
}

// AllExpenses flattens every expense group.
func (b *Budget) AllExpenses() []*Entry {
	return flatten(b.expenses)
}

// AllIncomes flattens every income group.
func (b *Budget) AllIncomes() []*Entry {
	return flatten(b.incomes)
}

// TotalMonthly is the monthly expense total.
func (b *Budget) TotalMonthly() float64 {
	var total float64
	for _, g := range b.expenses {
		total += g.TotalMonthly()
	}
	return total
}

// TotalMonthlyIncome is the monthly income total.
func (b *Budget) TotalMonthlyIncome() float64 {
	var total float64
	for _, g := range b.incomes {
		total += g.TotalMonthly()
	}
	return total
}

// BudgetAccounts returns the legacy list of plain account names.
//
// Deprecated: use Accounts. Kept so old documents round-trip.
func (b *Budget) BudgetAccounts() []string {
	return append([]string(nil), b.budgetAccounts...)
}

// SetBudgetAccounts replaces the legacy account name list.
//
// Deprecated: use AddAccount.
func (b *Budget) SetBudgetAccounts(names []string) {
	b.budgetAccounts = append([]string(nil), names...)
	b.notify(b, FieldBudgetAccounts, b.BudgetAccounts())
}

// Extra returns a value from the opaque auxiliary map.
func (b *Budget) Extra(key string) (any, bool) {
	v, ok := b.extra[key]
	return v, ok
}

// ExtraMap returns a deep copy of the auxiliary map.
func (b *Budget) ExtraMap() map[string]any {
	return copyMap(b.extra)
}

func (b *Budget) SetExtra(key string, value any) {
	b.extra[key] = value
	b.notify(b, FieldExtra, b.ExtraMap())
}

// ReplaceExtra swaps the whole auxiliary map without firing events; used when loading.
func (b *Budget) ReplaceExtra(extra map[string]any) {
	b.extra = copyMap(extra)
	if b.extra == nil {
		b.extra = map[string]any{}
	}
}

// Clone deep-copies the budget under a new id and name. Every child keeps its
// id and name; the receiver is not modified.
func (b *Budget) Clone(newName string) *Budget {
	c := NewBudget(newName)
	for _, g := range b.expenses {
		c.AddExpenseGroup(cloneGroup(g))
	}
	for _, g := range b.incomes {
		c.AddIncomeGroup(cloneGroup(g))
	}
	for _, t := range b.transfers {
		c.AddTransfer(NewTransfer(t.Attrs()))
	}
	for _, a := range b.accounts {
		c.RestoreAccounts(RestoreAccount(a.id, a.name, a.owner, a.typ))
	}
	c.budgetAccounts = b.BudgetAccounts()
	c.extra = copyMap(b.extra)
	return c
}

func cloneGroup(g *EntryGroup) *EntryGroup {
	c := RestoreEntryGroup(g.id, g.name)
	for _, e := range g.entries {
		c.AddEntry(NewEntry(e.Attrs()))
	}
	return c
}

func flatten(groups []*EntryGroup) []*Entry {
	var out []*Entry
	for _, g := range groups {
		out = append(out, g.entries...)
	}
	return out
}

func containsGroup(groups []*EntryGroup, g *EntryGroup) bool {
	for _, x := range groups {
		if x == g {
			return true
		}
	}
	return false
}

func findGroup(groups []*EntryGroup, id string) (*EntryGroup, bool) {
	for _, g := range groups {
		if g.id == id {
			return g, true
		}
	}
	return nil, false
}

func removeGroup(groups []*EntryGroup, id string) ([]*EntryGroup, bool) {
	for i, g := range groups {
		if g.id == id {
			return append(groups[:i:i], groups[i+1:]...), true
		}
	}
	return groups, false
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return copyMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = copyValue(item)
		}
		return out
	case map[string]float64:
		return maps.Clone(x)
	default:
		return v
	}
}
