// Package export renders a budget as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"budget/internal/core"
	"budget/internal/services"
)

// Sheet names.
const (
	SheetExpenses   = "Expenses"
	SheetIncomes    = "Incomes"
	SheetTransfers  = "Transfers"
	SheetAccounts   = "Accounts"
	SheetProjection = "Projection"
)

// ContentType is the MIME type of the produced workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// built-in number format "#,##0.00"
const moneyFormat = 4

var entryHeaders = []string{"Group", "Name", "Payment", "Period", "First month", "Fee", "Method", "Account", "Tag", "Owner", "Monthly"}

type styles struct {
	header, money, total int
}

// Workbook builds the workbook for b. When account is not empty a
// Projection sheet with the twelve-month saldo of that account is added.
// The caller closes the returned file.
func Workbook(b *core.Budget, account string) (*excelize.File, error) {
	f := excelize.NewFile()

	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetExpenses); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	steps := []func() error{
		func() error { return writeEntries(f, st, SheetExpenses, b.ExpenseGroups()) },
		func() error { return writeEntries(f, st, SheetIncomes, b.IncomeGroups()) },
		func() error { return writeTransfers(f, st, b.Transfers()) },
		func() error { return writeAccounts(f, st, b) },
	}
	if account != "" {
		steps = append(steps, func() error { return writeProjection(f, st, b, account) })
	}
	for _, step := range steps {
		if err := step(); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write renders the workbook for b to w.
func Write(w io.Writer, b *core.Budget, account string) error {
	f, err := Workbook(b, account)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook for b at path.
func WriteFile(path string, b *core.Budget, account string) error {
	f, err := Workbook(b, account)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// FileName suggests a download name for b.
func FileName(b *core.Budget, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", b.Name(), now.Format("2006-01-02"))
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}

	var st styles
	var err error
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	})
	if err != nil {
		return st, fmt.Errorf("header style: %w", err)
	}
	st.money, err = f.NewStyle(&excelize.Style{NumFmt: moneyFormat, Border: border})
	if err != nil {
		return st, fmt.Errorf("money style: %w", err)
	}
	st.total, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 11},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		NumFmt: moneyFormat,
		Border: border,
	})
	if err != nil {
		return st, fmt.Errorf("total style: %w", err)
	}
	return st, nil
}

func ensureSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return err
	}
	if idx == -1 {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	return nil
}

// writeRow writes values starting at column A of row.
func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(sheet, from, to, style)
}

func writeHeader(f *excelize.File, st styles, sheet string, headers []string) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := writeRow(f, sheet, 1, values...); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	return styleRow(f, sheet, 1, len(headers), st.header)
}

func writeEntries(f *excelize.File, st styles, sheet string, groups []*core.EntryGroup) error {
	if err := ensureSheet(f, sheet); err != nil {
		return err
	}
	if err := writeHeader(f, st, sheet, entryHeaders); err != nil {
		return err
	}

	row := 2
	var total float64
	for _, g := range groups {
		for _, e := range g.Entries() {
			err := writeRow(f, sheet, row,
				g.Name(), e.Name(), e.PaymentSize(), e.PaymentPeriod(), e.FirstPaymentMonth(),
				e.PaymentFee(), e.PaymentMethod(), e.Account(), e.Tag(), e.Owner(), e.Monthly())
			if err != nil {
				return fmt.Errorf("%s row %d: %w", sheet, row, err)
			}
			if err := styleRow(f, sheet, row, len(entryHeaders), st.money); err != nil {
				return err
			}
			total += e.Monthly()
			row++
		}
	}

	if err := writeRow(f, sheet, row, "Total"); err != nil {
		return err
	}
	totalCell, _ := excelize.CoordinatesToCellName(len(entryHeaders), row)
	if err := f.SetCellValue(sheet, totalCell, total); err != nil {
		return err
	}
	if err := styleRow(f, sheet, row, len(entryHeaders), st.total); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "K", 14)
}

func writeTransfers(f *excelize.File, st styles, transfers []*core.Transfer) error {
	if err := ensureSheet(f, SheetTransfers); err != nil {
		return err
	}
	headers := []string{"Name", "Source", "Destination", "Amount", "Owner"}
	if err := writeHeader(f, st, SheetTransfers, headers); err != nil {
		return err
	}
	for i, t := range transfers {
		row := i + 2
		if err := writeRow(f, SheetTransfers, row, t.Name(), t.Source(), t.Destination(), t.Amount(), t.Owner()); err != nil {
			return fmt.Errorf("%s row %d: %w", SheetTransfers, row, err)
		}
		if err := styleRow(f, SheetTransfers, row, len(headers), st.money); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetTransfers, "A", "E", 16)
}

func writeAccounts(f *excelize.File, st styles, b *core.Budget) error {
	if err := ensureSheet(f, SheetAccounts); err != nil {
		return err
	}
	headers := []string{"Name", "Owner", "Type", "Before expenses", "After expenses"}
	if err := writeHeader(f, st, SheetAccounts, headers); err != nil {
		return err
	}
	for i, s := range services.AccountSummaries(b) {
		row := i + 2
		a := s.Account
		if err := writeRow(f, SheetAccounts, row, a.Name(), a.Owner(), a.Type().String(), s.Before, s.After); err != nil {
			return fmt.Errorf("%s row %d: %w", SheetAccounts, row, err)
		}
		if err := styleRow(f, SheetAccounts, row, len(headers), st.money); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetAccounts, "A", "E", 18)
}

func writeProjection(f *excelize.File, st styles, b *core.Budget, account string) error {
	p, err := services.ProjectAccount(b, account)
	if err != nil {
		return err
	}
	if err := ensureSheet(f, SheetProjection); err != nil {
		return err
	}
	headers := []string{"Month", "Expenses", "Incomes", "Saldo"}
	if err := writeHeader(f, st, SheetProjection, headers); err != nil {
		return err
	}
	for i := range p.Saldo {
		row := i + 2
		month := time.Month(i + 1).String()
		if err := writeRow(f, SheetProjection, row, month, p.Expenses[i], p.Incomes[i], p.Saldo[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", SheetProjection, row, err)
		}
		if err := styleRow(f, SheetProjection, row, len(headers), st.money); err != nil {
			return err
		}
	}

	row := len(p.Saldo) + 2
	if err := writeRow(f, SheetProjection, row, "Buffer needed", nil, nil, p.BufferNeeded); err != nil {
		return err
	}
	if err := styleRow(f, SheetProjection, row, len(headers), st.total); err != nil {
		return err
	}
	return f.SetColWidth(SheetProjection, "A", "D", 16)
}
