package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"budget/internal/core"
)

func exportBudget() *core.Budget {
	b := core.NewBudget("Family")
	b.AddAccount(core.NewAccount("Budget", "Both", core.AccountBudget))
	b.AddAccount(core.NewAccount("Løn", "A", core.AccountIncome))

	g := core.NewEntryGroup("Housing")
	g.AddEntry(core.NewEntry(core.EntryAttrs{Name: "Rent", PaymentSize: 6000, Account: "Budget"}))
	g.AddEntry(core.NewEntry(core.EntryAttrs{Name: "Insurance", PaymentSize: 1200, PaymentPeriod: 12, FirstPaymentMonth: 3, Account: "Budget"}))
	b.AddExpenseGroup(g)

	in := core.NewEntryGroup("Salary")
	in.AddEntry(core.NewEntry(core.EntryAttrs{Name: "Pay", PaymentSize: 30000, Account: "Løn"}))
	b.AddIncomeGroup(in)

	b.AddTransfer(core.NewTransfer(core.TransferAttrs{Name: "Budget", Source: "Løn", Destination: "Budget", Amount: 7000}))
	return b
}

func TestWorkbookSheets(t *testing.T) {
	f, err := Workbook(exportBudget(), "Budget")
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetExpenses, SheetIncomes, SheetTransfers, SheetAccounts, SheetProjection}, f.GetSheetList())

	rows, err := f.GetRows(SheetExpenses)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, entryHeaders, rows[0])
	assert.Equal(t, "Rent", rows[1][1])
	assert.Equal(t, "Total", rows[3][0])

	total, err := f.GetCellValue(SheetExpenses, "K4", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "6100", total)

	proj, err := f.GetRows(SheetProjection)
	require.NoError(t, err)
	require.Len(t, proj, 14)
	assert.Equal(t, "January", proj[1][0])
	assert.Equal(t, "Buffer needed", proj[13][0])
}

func TestWorkbookWithoutAccount(t *testing.T) {
	f, err := Workbook(exportBudget(), "")
	require.NoError(t, err)
	defer f.Close()
	assert.NotContains(t, f.GetSheetList(), SheetProjection)
}

func TestWorkbookUnknownAccount(t *testing.T) {
	_, err := Workbook(exportBudget(), "Nowhere")
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
}

func TestWriteAndWriteFile(t *testing.T) {
	b := exportBudget()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, b, ""))
	assert.NotZero(t, buf.Len())

	path := filepath.Join(t.TempDir(), FileName(b, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Family_2024-05-01.xlsx", filepath.Base(path))
	require.NoError(t, WriteFile(path, b, "Budget"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	accounts, err := f.GetRows(SheetAccounts)
	require.NoError(t, err)
	assert.Len(t, accounts, 3)
}
