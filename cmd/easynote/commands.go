package main

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/easynote/easynote-go/api"
	"github.com/easynote/easynote-go/session"
)

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "login":
		return a.login(ctx, args)
	case "register":
		return a.register(ctx, args)
	case "logout":
		a.client.Logout(ctx)
		fmt.Fprintln(a.out, "logged out")
		return nil
	case "whoami":
		return a.whoami(ctx)
	case "ledgers":
		return a.ledgers(ctx)
	case "expenses":
		return a.expenses(ctx, args)
	case "incomes":
		return a.incomes(ctx, args)
	case "categories":
		return a.categories(ctx, args)
	case "family":
		return a.family(ctx)
	case "cards":
		return a.cards(ctx)
	case "messages":
		return a.messages(ctx, args)
	case "unread":
		return a.unread(ctx)
	case "navigate":
		return a.navigate(ctx, args)
	case "serve":
		return a.serve(ctx, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: login <username> [password]", errUsage)
	}
	creds := session.Credentials{Username: args[0]}
	if len(args) == 2 {
		creds.Password = args[1]
	} else {
		fmt.Fprint(a.out, "password: ")
		line, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		creds.Password = strings.TrimRight(line, "\r\n")
	}

	if err := a.client.Login(ctx, creds); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s\n", a.displayName())
	return nil
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return fmt.Errorf("%w: register <username> <password> [nickname]", errUsage)
	}
	r := session.Registration{Username: args[0], Password: args[1], ConfirmPassword: args[1]}
	if len(args) == 3 {
		r.Nickname = args[2]
	}
	if err := a.client.Register(ctx, r); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered and logged in as %s\n", a.displayName())
	return nil
}

func (a *app) displayName() string {
	if p := a.client.Session().Profile(); p != nil {
		return p.DisplayName()
	}
	return "unknown user"
}

func (a *app) whoami(ctx context.Context) error {
	store := a.client.Session()
	if !store.IsAuthenticated() {
		fmt.Fprintln(a.out, "not logged in")
		return nil
	}
	if err := a.client.FetchProfile(ctx); err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	if p := store.Profile(); p != nil {
		fmt.Fprintf(w, "user\t%s (#%d)\n", p.DisplayName(), p.ID)
		if p.FamilyName != "" {
			fmt.Fprintf(w, "family\t%s\n", p.FamilyName)
		}
	}
	if claims, err := session.Inspect(store.Token()); err == nil && !claims.Expiry.IsZero() {
		fmt.Fprintf(w, "expires\t%s\n", claims.Expiry.Format(time.RFC3339))
	}
	return w.Flush()
}

func (a *app) ledgers(ctx context.Context) error {
	env, err := a.client.API().Ledgers.Mine(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tINCOME\tEXPENSE\tBALANCE")
	for _, l := range env.Data {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.2f\t%.2f\n", l.ID, l.Name, l.TotalIncome, l.TotalExpense, l.Balance)
	}
	return w.Flush()
}

func (a *app) expenses(ctx context.Context, args []string) error {
	ledgerID, page, err := ledgerPage(args)
	if err != nil {
		return fmt.Errorf("%w: expenses <ledger-id> [page]: %v", errUsage, err)
	}
	env, err := a.client.API().Expenses.List(ctx, ledgerID, page, api.DefaultEntryPageSize)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tCATEGORY\tPURPOSE")
	for _, x := range env.Data.Records {
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", x.ExpenseDate, x.Amount, x.CategoryName, x.Purpose)
	}
	fmt.Fprintf(w, "page %d/%d, %d total\n", env.Data.Current, env.Data.Pages, env.Data.Total)
	return w.Flush()
}

func (a *app) incomes(ctx context.Context, args []string) error {
	ledgerID, page, err := ledgerPage(args)
	if err != nil {
		return fmt.Errorf("%w: incomes <ledger-id> [page]: %v", errUsage, err)
	}
	env, err := a.client.API().Incomes.List(ctx, ledgerID, page, api.DefaultEntryPageSize)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tCATEGORY\tSOURCE")
	for _, x := range env.Data.Records {
		fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", x.IncomeDate, x.Amount, x.CategoryName, x.Source)
	}
	fmt.Fprintf(w, "page %d/%d, %d total\n", env.Data.Current, env.Data.Pages, env.Data.Total)
	return w.Flush()
}

func ledgerPage(args []string) (ledgerID, page int64, err error) {
	if len(args) < 1 || len(args) > 2 {
		return 0, 0, fmt.Errorf("want 1 or 2 arguments, got %d", len(args))
	}
	if ledgerID, err = strconv.ParseInt(args[0], 10, 64); err != nil {
		return 0, 0, fmt.Errorf("ledger id: %w", err)
	}
	page = 1
	if len(args) == 2 {
		if page, err = strconv.ParseInt(args[1], 10, 64); err != nil {
			return 0, 0, fmt.Errorf("page: %w", err)
		}
	}
	return ledgerID, page, nil
}

func (a *app) categories(ctx context.Context, args []string) error {
	var t api.CategoryType
	if len(args) > 0 {
		switch args[0] {
		case "income":
			t = api.CategoryIncome
		case "expense":
			t = api.CategoryExpense
		default:
			return fmt.Errorf("%w: categories [income|expense]", errUsage)
		}
	}
	env, err := a.client.API().Categories.List(ctx, t)
	if err != nil {
		return err
	}
	var walk func(cs []api.Category, depth int)
	walk = func(cs []api.Category, depth int) {
		for _, c := range cs {
			fmt.Fprintf(a.out, "%s%s (#%d)\n", strings.Repeat("  ", depth), c.Name, c.ID)
			walk(c.Children, depth+1)
		}
	}
	walk(env.Data, 0)
	return nil
}

func (a *app) family(ctx context.Context) error {
	env, err := a.client.API().Families.Current(ctx)
	if err != nil {
		return err
	}
	f := env.Data
	if f == nil {
		fmt.Fprintln(a.out, "not in a family")
		return nil
	}
	fmt.Fprintf(a.out, "%s (invite code %s)\n", f.Name, f.InviteCode)
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, m := range f.Members {
		fmt.Fprintf(w, "%s\t%s\n", m.Nickname, m.RoleName)
	}
	return w.Flush()
}

func (a *app) cards(ctx context.Context) error {
	env, err := a.client.API().BankCards.List(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, c := range env.Data {
		fmt.Fprintf(w, "%s\t%s\t*%s\n", c.BankName, c.CardTypeName, c.CardNoSuffix)
	}
	return w.Flush()
}

func (a *app) messages(ctx context.Context, args []string) error {
	page := int64(1)
	if len(args) > 0 {
		var err error
		if page, err = strconv.ParseInt(args[0], 10, 64); err != nil {
			return fmt.Errorf("%w: messages [page]", errUsage)
		}
	}
	env, err := a.client.API().Messages.List(ctx, page, api.DefaultMessagePageSize, nil)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, m := range env.Data.Records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.StatusName, m.Title, m.CreateTime)
	}
	return w.Flush()
}

func (a *app) unread(ctx context.Context) error {
	env, err := a.client.API().Messages.UnreadCount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, env.Data)
	return nil
}

func (a *app) navigate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: navigate <path>", errUsage)
	}
	target, err := a.client.Navigate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\t%s\n", target.FullPath, a.client.Router().Title())
	return nil
}
