package codec

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func fullBudget() *core.Budget {
	b := core.NewBudget("Family")
	housing := core.NewEntryGroup("Housing")
	housing.AddEntry(core.NewEntry(core.EntryAttrs{
		Name: "Rent", PaymentSize: 6000, PaymentMethod: "BS", Account: "Budget", Tag: "fixed", Owner: "Both",
	}))
	housing.AddEntry(core.NewEntry(core.EntryAttrs{
		Name: "Insurance", PaymentSize: 2400, PaymentPeriod: 3, FirstPaymentMonth: 2, PaymentFee: 12.5, Account: "Budget",
	}))
	b.AddExpenseGroup(housing)

	salary := core.NewEntryGroup("Salary")
	salary.AddEntry(core.NewEntry(core.EntryAttrs{Name: "Pay", PaymentSize: 30000, Account: "Løn", Owner: "A"}))
	b.AddIncomeGroup(salary)

	b.AddTransfer(core.NewTransfer(core.TransferAttrs{Name: "To budget", Source: "Løn", Destination: "Budget", Amount: 9000, Owner: "A"}))
	b.AddAccount(core.NewAccount("Budget", "Both", core.AccountBudget))
	b.AddAccount(core.NewAccount("Løn", "A", core.AccountIncome))
	b.SetBudgetAccounts([]string{"Budget"})
	b.SetExtra("account-layout", map[string]any{"Budget": map[string]any{"x": 10.0, "y": 20.0}})
	return b
}

func TestRoundTripPreservesEverything(t *testing.T) {
	b := fullBudget()

	restored := FromDocument(ToDocument(b))
	assert.Equal(t, ToDocument(b), ToDocument(restored))
	assert.Equal(t, b.ID(), restored.ID())

	data, err := Marshal(b)
	require.NoError(t, err)
	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, ToDocument(b), ToDocument(decoded))

	orig := b.AllExpenses()
	got := decoded.AllExpenses()
	require.Len(t, got, len(orig))
	for i := range orig {
		assert.Equal(t, orig[i].Attrs(), got[i].Attrs())
	}
}

func TestFromDocumentWiresCascade(t *testing.T) {
	decoded := FromDocument(ToDocument(fullBudget()))

	var fields []string
	decoded.RegisterOnUpdate(func(ev core.Event) { fields = append(fields, ev.Field) })
	decoded.AllExpenses()[0].SetPaymentSize(1)
	decoded.AllIncomes()[0].SetName("Salary")
	decoded.Transfers()[0].SetAmount(1)

	assert.Equal(t, []string{core.FieldExpenses, core.FieldIncomes, core.FieldTransfers}, fields)
}

func TestDocumentLayout(t *testing.T) {
	data, err := Marshal(fullBudget())
	require.NoError(t, err)

	for _, key := range []string{`"name"`, `"id"`, `"expenses"`, `"incomes"`, `"transfers"`, `"accounts"`, `"budget_accounts"`, `"extra"`, `"payment_period"`, `"first_payment_month"`} {
		assert.Contains(t, string(data), key)
	}
	assert.Contains(t, string(data), "\n    \"name\"", "expected four-space indentation")
}

func TestUnmarshalLegacyDocument(t *testing.T) {
	// written before ids and extra existed
	legacy := `{
		"name": "Old",
		"expenses": [{"name": "Food", "entries": [{"name": "Groceries", "payment_size": 4000, "payment_period": 1, "first_payment_month": 1, "payment_fee": 0, "payment_method": "Kort", "account": "Budget", "tag": "", "owner": ""}]}],
		"incomes": [],
		"transfers": [],
		"budget_accounts": ["Budget"],
		"accounts": [{"name": "Budget", "owner": "", "type": "Budget"}]
	}`
	b, err := Unmarshal([]byte(legacy))
	require.NoError(t, err)

	assert.NotEmpty(t, b.ID())
	assert.NotEmpty(t, b.ExpenseGroups()[0].ID())
	assert.NotEmpty(t, b.AllExpenses()[0].ID())
	assert.NotNil(t, b.ExtraMap())
	assert.Empty(t, b.ExtraMap())
	assert.Equal(t, []string{"Budget"}, b.BudgetAccounts())
	assert.Equal(t, core.AccountBudget, b.Accounts()[0].Type())
}

func TestUnmarshalMalformed(t *testing.T) {
	for _, in := range []string{"", "null", "[]", "{not json", `{"expenses": "nope"}`} {
		_, err := Unmarshal([]byte(in))
		assert.ErrorIs(t, err, ErrMalformedDocument, "input %q", in)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0o644))
	_, err = LoadFile(bad)
	assert.ErrorIs(t, err, ErrMalformedDocument)

	b := fullBudget()
	data, err := Marshal(b)
	require.NoError(t, err)
	good := filepath.Join(dir, b.ID()+".json")
	require.NoError(t, os.WriteFile(good, data, 0o644))
	loaded, err := LoadFile(good)
	require.NoError(t, err)
	assert.Equal(t, b.ID(), loaded.ID())
}
