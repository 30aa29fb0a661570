// Package codec converts the budget entity graph to and from its persisted
// JSON document form.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"budget/internal/core"
)

// ErrMalformedDocument is returned for content that is not a budget document.
var ErrMalformedDocument = errors.New("malformed budget document")

type (
	// Document is the persisted form of a Budget.
	Document struct {
		Name           string             `json:"name"`
		ID             string             `json:"id"`
		Expenses       []GroupDocument    `json:"expenses"`
		Incomes        []GroupDocument    `json:"incomes"`
		Transfers      []TransferDocument `json:"transfers"`
		Accounts       []AccountDocument  `json:"accounts"`
		BudgetAccounts []string           `json:"budget_accounts"`
		Extra          map[string]any     `json:"extra"`
	}

	GroupDocument struct {
		Name    string          `json:"name"`
		ID      string          `json:"id"`
		Entries []EntryDocument `json:"entries"`
	}

	EntryDocument struct {
		ID                string  `json:"id"`
		Name              string  `json:"name"`
		PaymentSize       float64 `json:"payment_size"`
		PaymentPeriod     int     `json:"payment_period"`
		FirstPaymentMonth int     `json:"first_payment_month"`
		PaymentFee        float64 `json:"payment_fee"`
		PaymentMethod     string  `json:"payment_method"`
		Account           string  `json:"account"`
		Tag               string  `json:"tag"`
		Owner             string  `json:"owner"`
	}

	TransferDocument struct {
		ID          string  `json:"id"`
		Name        string  `json:"name"`
		Source      string  `json:"source"`
		Destination string  `json:"destination"`
		Amount      float64 `json:"amount"`
		Owner       string  `json:"owner"`
	}

	AccountDocument struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Owner string `json:"owner"`
		Type  string `json:"type"`
	}
)

// ToDocument mirrors b into its document tree.
func ToDocument(b *core.Budget) Document {
	d := Document{
		Name:           b.Name(),
		ID:             b.ID(),
		Expenses:       groupDocuments(b.ExpenseGroups()),
		Incomes:        groupDocuments(b.IncomeGroups()),
		Transfers:      make([]TransferDocument, 0),
		Accounts:       make([]AccountDocument, 0),
		BudgetAccounts: b.BudgetAccounts(),
		Extra:          b.ExtraMap(),
	}
	if d.BudgetAccounts == nil {
		d.BudgetAccounts = []string{}
	}
	if d.Extra == nil {
		d.Extra = map[string]any{}
	}
	for _, t := range b.Transfers() {
		a := t.Attrs()
		d.Transfers = append(d.Transfers, TransferDocument{
			ID:          a.ID,
			Name:        a.Name,
			Source:      a.Source,
			Destination: a.Destination,
			Amount:      a.Amount,
			Owner:       a.Owner,
		})
	}
	for _, acc := range b.Accounts() {
		d.Accounts = append(d.Accounts, AccountDocument{
			ID:    acc.ID(),
			Name:  acc.Name(),
			Owner: acc.Owner(),
			Type:  acc.Type().String(),
		})
	}
	return d
}

func groupDocuments(groups []*core.EntryGroup) []GroupDocument {
	out := make([]GroupDocument, 0, len(groups))
	for _, g := range groups {
		gd := GroupDocument{Name: g.Name(), ID: g.ID(), Entries: make([]EntryDocument, 0, g.Len())}
		for _, e := range g.Entries() {
			gd.Entries = append(gd.Entries, EntryToDocument(e.Attrs()))
		}
		out = append(out, gd)
	}
	return out
}

// EntryToDocument converts the fields of one entry.
func EntryToDocument(a core.EntryAttrs) EntryDocument {
	return EntryDocument{
		ID:                a.ID,
		Name:              a.Name,
		PaymentSize:       a.PaymentSize,
		PaymentPeriod:     a.PaymentPeriod,
		FirstPaymentMonth: a.FirstPaymentMonth,
		PaymentFee:        a.PaymentFee,
		PaymentMethod:     a.PaymentMethod,
		Account:           a.Account,
		Tag:               a.Tag,
		Owner:             a.Owner,
	}
}

// FromDocument rebuilds the entity graph. Groups and transfers are attached
// through the same calls used for interactive edits so the change cascade is
// wired; accounts and the legacy account list are restored flat.
func FromDocument(d Document) *core.Budget {
	b := core.RestoreBudget(d.ID, d.Name)
	for _, gd := range d.Expenses {
		b.AddExpenseGroup(groupFromDocument(gd))
	}
	for _, gd := range d.Incomes {
		b.AddIncomeGroup(groupFromDocument(gd))
	}
	for _, td := range d.Transfers {
		b.AddTransfer(core.NewTransfer(core.TransferAttrs{
			ID:          td.ID,
			Name:        td.Name,
			Source:      td.Source,
			Destination: td.Destination,
			Amount:      td.Amount,
			Owner:       td.Owner,
		}))
	}
	if len(d.BudgetAccounts) > 0 {
		b.SetBudgetAccounts(d.BudgetAccounts)
	}
	for _, ad := range d.Accounts {
		b.RestoreAccounts(core.RestoreAccount(ad.ID, ad.Name, ad.Owner, core.AccountType(ad.Type)))
	}
	b.ReplaceExtra(d.Extra)
	return b
}

func groupFromDocument(gd GroupDocument) *core.EntryGroup {
	g := core.RestoreEntryGroup(gd.ID, gd.Name)
	for _, ed := range gd.Entries {
		g.AddEntry(core.NewEntry(core.EntryAttrs{
			ID:                ed.ID,
			Name:              ed.Name,
			PaymentSize:       ed.PaymentSize,
			PaymentPeriod:     ed.PaymentPeriod,
			FirstPaymentMonth: ed.FirstPaymentMonth,
			PaymentFee:        ed.PaymentFee,
			PaymentMethod:     ed.PaymentMethod,
			Account:           ed.Account,
			Tag:               ed.Tag,
			Owner:             ed.Owner,
		}))
	}
	return g
}

// Marshal encodes b with four-space indentation.
func Marshal(b *core.Budget) ([]byte, error) {
	data, err := json.MarshalIndent(ToDocument(b), "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode budget %s: %w", b.ID(), err)
	}
	return data, nil
}

// Decode parses data into a Document without building the entity graph.
func Decode(data []byte) (Document, error) {
	var d Document
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return d, ErrMalformedDocument
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return d, nil
}

// Unmarshal decodes a budget document.
func Unmarshal(data []byte) (*core.Budget, error) {
	d, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(d), nil
}

// LoadFile reads and decodes the budget stored at path. A missing file wraps
// fs.ErrNotExist; unparsable content wraps ErrMalformedDocument.
func LoadFile(path string) (*core.Budget, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read budget file: %w", err)
	}
	b, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
