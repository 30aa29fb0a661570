package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"budget/internal/codec"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/services"
	"budget/internal/settings"
)

var errUsage = errors.New("usage: budget <list|create|copy|delete|show|balances|saldo|movements|export|import> [flags]")

type app struct {
	svc      *services.BudgetService
	settings settings.Store
	out      io.Writer
	errOut   io.Writer
}

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"list":      cmdList,
	"create":    cmdCreate,
	"copy":      cmdCopy,
	"delete":    cmdDelete,
	"show":      cmdShow,
	"balances":  cmdBalances,
	"saldo":     cmdSaldo,
	"movements": cmdMovements,
	"export":    cmdExport,
	"import":    cmdImport,
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command %q\n%w", args[0], errUsage)
	}
	return cmd(ctx, a, args[1:])
}

func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// budgetFlag registers -id, defaulting to the last used budget.
func (a *app) budgetFlag(fs *pflag.FlagSet) *string {
	return fs.String("id", settings.String(a.settings, settings.KeyLastBudget, ""), "budget id")
}

func (a *app) accountFlag(fs *pflag.FlagSet) *string {
	return fs.String("account", settings.String(a.settings, settings.KeyLastAccount, ""), "account name")
}

func (a *app) remember(key, value string) {
	if value == "" {
		return
	}
	if err := a.settings.Set(key, value); err != nil {
		fmt.Fprintln(a.errOut, "warning: could not save settings:", err)
	}
}

func requireFlag(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("-%s is required", name)
	}
	return nil
}

func cmdList(ctx context.Context, a *app, args []string) error {
	if err := a.flags("list").Parse(args); err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMONTHLY EXPENSES\tMONTHLY INCOME")
	for _, info := range a.svc.List(ctx) {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n", info.ID, info.Name, info.TotalMonthly, info.TotalMonthlyIncome)
	}
	return tw.Flush()
}

func cmdCreate(ctx context.Context, a *app, args []string) error {
	fs := a.flags("create")
	name := fs.String("name", "", "budget name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("name", *name); err != nil {
		return err
	}
	info, err := a.svc.Create(ctx, *name)
	if err != nil {
		return err
	}
	a.remember(settings.KeyLastBudget, info.ID)
	fmt.Fprintf(a.out, "created %s (%s)\n", info.Name, info.ID)
	return nil
}

func cmdCopy(ctx context.Context, a *app, args []string) error {
	fs := a.flags("copy")
	id := a.budgetFlag(fs)
	name := fs.String("name", "", "name of the copy")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if err := requireFlag("name", *name); err != nil {
		return err
	}
	info, err := a.svc.Copy(ctx, *id, *name)
	if err != nil {
		return err
	}
	a.remember(settings.KeyLastBudget, info.ID)
	fmt.Fprintf(a.out, "copied to %s (%s)\n", info.Name, info.ID)
	return nil
}

func cmdDelete(ctx context.Context, a *app, args []string) error {
	fs := a.flags("delete")
	id := fs.String("id", "", "budget id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	// every invocation reloads from storage, so a delete that kept the file
	// would be undone by the next command
	if err := a.svc.Delete(ctx, *id, true); err != nil {
		return err
	}
	if settings.String(a.settings, settings.KeyLastBudget, "") == *id {
		if err := a.settings.Set(settings.KeyLastBudget, ""); err != nil {
			fmt.Fprintln(a.errOut, "warning: could not save settings:", err)
		}
	}
	fmt.Fprintf(a.out, "deleted %s\n", *id)
	return nil
}

func cmdShow(ctx context.Context, a *app, args []string) error {
	fs := a.flags("show")
	id := a.budgetFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	err := a.svc.View(ctx, *id, func(b *core.Budget) error {
		fmt.Fprintf(a.out, "%s (%s)\n\n", b.Name(), b.ID())
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		printGroups(tw, "EXPENSES", b.ExpenseGroups())
		printGroups(tw, "INCOMES", b.IncomeGroups())

		fmt.Fprintln(tw, "TRANSFERS\tAMOUNT\tFROM\tTO")
		for _, t := range b.Transfers() {
			fmt.Fprintf(tw, "  %s\t%.2f\t%s\t%s\n", t.Name(), t.Amount(), t.Source(), t.Destination())
		}
		fmt.Fprintln(tw)

		fmt.Fprintln(tw, "ACCOUNTS\tTYPE\tOWNER")
		for _, acc := range b.Accounts() {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", acc.Name(), acc.Type(), acc.Owner())
		}
		fmt.Fprintln(tw)
		fmt.Fprintf(tw, "Monthly expenses\t%.2f\n", b.TotalMonthly())
		fmt.Fprintf(tw, "Monthly income\t%.2f\n", b.TotalMonthlyIncome())
		return tw.Flush()
	})
	if err != nil {
		return err
	}
	a.remember(settings.KeyLastBudget, *id)
	return nil
}

func printGroups(w io.Writer, title string, groups []*core.EntryGroup) {
	fmt.Fprintf(w, "%s\tPAYMENT\tEVERY\tFROM MONTH\tACCOUNT\tMONTHLY\n", title)
	for _, g := range groups {
		fmt.Fprintf(w, "  %s\t\t\t\t\t%.2f\n", g.Name(), g.TotalMonthly())
		for _, e := range g.Entries() {
			fmt.Fprintf(w, "    %s\t%.2f\t%s\t%d\t%s\t%.2f\n",
				e.Name(), e.PaymentSize(), core.PeriodLabel(e.PaymentPeriod()), e.FirstPaymentMonth(), e.Account(), e.Monthly())
		}
	}
	fmt.Fprintln(w)
}

func cmdBalances(ctx context.Context, a *app, args []string) error {
	fs := a.flags("balances")
	id := a.budgetFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	sums, err := a.svc.Summaries(ctx, *id)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT\tTYPE\tBEFORE TRANSFERS\tAFTER TRANSFERS")
	for _, s := range sums {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\n", s.Account.Name(), s.Account.Type(), s.Before, s.After)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	a.remember(settings.KeyLastBudget, *id)
	return nil
}

func cmdSaldo(ctx context.Context, a *app, args []string) error {
	fs := a.flags("saldo")
	id := a.budgetFlag(fs)
	account := a.accountFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if err := requireFlag("account", *account); err != nil {
		return err
	}
	p, err := a.svc.Projection(ctx, *id, *account)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MONTH\tEXPENSES\tINCOMES\tSALDO\t")
	for i := range p.Saldo {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t\n", time.Month(i+1), p.Expenses[i], p.Incomes[i], p.Saldo[i])
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nBuffer needed on %s: %.2f\n", p.Account, p.BufferNeeded)

	a.remember(settings.KeyLastBudget, *id)
	a.remember(settings.KeyLastAccount, *account)
	return nil
}

func cmdMovements(ctx context.Context, a *app, args []string) error {
	fs := a.flags("movements")
	id := a.budgetFlag(fs)
	account := a.accountFlag(fs)
	months := fs.IntSlice("months", nil, "months to list, 1-12 (default all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}
	if err := requireFlag("account", *account); err != nil {
		return err
	}
	for _, m := range *months {
		if m < 1 || m > core.MonthsPerCycle {
			return fmt.Errorf("invalid month %d", m)
		}
	}

	moves, err := a.svc.Movements(ctx, *id, *account, *months)
	if err != nil {
		return err
	}
	keys := make([]int, 0, len(moves))
	for m := range moves {
		keys = append(keys, m)
	}
	sort.Ints(keys)

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, m := range keys {
		total := 0.0
		fmt.Fprintf(tw, "%s\n", time.Month(m))
		for _, e := range moves[m] {
			fmt.Fprintf(tw, "  %s\t%.2f\t%s\n", e.Name, e.PaymentSize+e.PaymentFee, e.PaymentMethod)
			total += e.PaymentSize + e.PaymentFee
		}
		fmt.Fprintf(tw, "  Total\t%.2f\t\n", total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	a.remember(settings.KeyLastBudget, *id)
	a.remember(settings.KeyLastAccount, *account)
	return nil
}

func cmdExport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("export")
	id := a.budgetFlag(fs)
	account := a.accountFlag(fs)
	out := fs.String("out", "", "output file (default <name>_<date>.xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("id", *id); err != nil {
		return err
	}

	path := *out
	err := a.svc.View(ctx, *id, func(b *core.Budget) error {
		if path == "" {
			path = export.FileName(b, time.Now())
		}
		return export.WriteFile(path, b, *account)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "exported to %s\n", path)
	a.remember(settings.KeyLastBudget, *id)
	return nil
}

func cmdImport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("import")
	file := fs.String("file", "", "budget JSON file")
	name := fs.String("name", "", "name of the imported budget (default the file's)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireFlag("file", *file); err != nil {
		return err
	}

	b, err := codec.LoadFile(*file)
	if err != nil {
		return err
	}
	d := codec.ToDocument(b)
	if *name != "" {
		d.Name = *name
	}

	info, err := a.svc.Import(ctx, d)
	if err != nil {
		return err
	}
	a.remember(settings.KeyLastBudget, info.ID)
	fmt.Fprintf(a.out, "imported %s (%s)\n", info.Name, info.ID)
	return nil
}
