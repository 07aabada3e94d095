// Command boutiquectl drives the boutique API from a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	flag "github.com/spf13/pflag"

	"boutique/internal/client"
	"boutique/internal/domain"
)

const usage = `usage: boutiquectl [flags] <command> [args]

commands:
  products [query]        list products, optionally filtered by name or SKU
  sell <sku|id> <qty>     record a sale (sales staff)
  restock <sku|id> <qty>  add units to stock (admin)
  report [period]         sales report: today, yesterday, week, month, all
  dashboard               store overview for the logged-in role

flags:
`

func main() {
	fs := flag.NewFlagSet("boutiquectl", flag.ContinueOnError)
	server := fs.StringP("server", "s", envOr("BOUTIQUE_SERVER", "http://localhost:8080"), "API base URL")
	email := fs.StringP("email", "e", os.Getenv("BOUTIQUE_EMAIL"), "login email (or BOUTIQUE_EMAIL)")
	password := fs.StringP("password", "p", os.Getenv("BOUTIQUE_PASSWORD"), "login password (or BOUTIQUE_PASSWORD)")
	top := fs.Int("top", 5, "rows in report rankings")
	timeout := fs.Duration("timeout", 30*time.Second, "overall command timeout")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*server)
	if *email == "" || *password == "" {
		fail(errors.New("credentials required: set --email/--password or BOUTIQUE_EMAIL/BOUTIQUE_PASSWORD"))
	}
	if _, err := c.Login(ctx, *email, *password); err != nil {
		fail(fmt.Errorf("login: %w", err))
	}
	defer func() { _ = c.Logout(context.Background()) }()

	out := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer out.Flush()
	if err := run(ctx, c, out, args, *top); err != nil {
		out.Flush()
		fail(err)
	}
}

func run(ctx context.Context, c *client.Client, w io.Writer, args []string, top int) error {
	switch cmd, rest := args[0], args[1:]; cmd {
	case "products":
		ps, err := c.Products(ctx, strings.Join(rest, " "), "")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "SKU\tNAME\tCATEGORY\tPRICE\tSTOCK")
		for _, p := range ps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.SKU, p.Name, p.Category, p.SellingPrice.StringFixed(2), p.Stock)
		}
	case "sell", "restock":
		if len(rest) != 2 {
			return fmt.Errorf("%s needs <sku|id> <qty>", cmd)
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("quantity %q is not a number", rest[1])
		}
		id, err := resolveProduct(ctx, c, rest[0])
		if err != nil {
			return err
		}
		if cmd == "sell" {
			s, err := c.Sell(ctx, id, qty)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "sold %d x %s at %s = %s\n", s.Quantity, s.ProductName, s.SellingPrice.StringFixed(2), s.Total.StringFixed(2))
			return nil
		}
		e, err := c.Restock(ctx, id, qty)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "added %d x %s\n", e.Quantity, e.ProductName)
	case "report":
		period := "month"
		if len(rest) > 0 {
			period = rest[0]
		}
		r, err := c.Report(ctx, period, top)
		if err != nil {
			return err
		}
		s := r.Summary
		fmt.Fprintf(w, "transactions\t%d\nitems sold\t%d\nrevenue\t%s\nprofit\t%s\naverage order\t%s\nmargin\t%s%%\n",
			s.Transactions, s.ItemsSold, s.Revenue.StringFixed(2), s.Profit.StringFixed(2), s.AverageOrderValue.StringFixed(2), s.ProfitMargin.String())
		fmt.Fprintln(w, "\nTOP PRODUCT\tQTY\tREVENUE")
		for _, p := range r.TopProducts {
			fmt.Fprintf(w, "%s\t%d\t%s\n", p.ProductName, p.Quantity, p.Revenue.StringFixed(2))
		}
		fmt.Fprintln(w, "\nTOP CATEGORY\tQTY\tREVENUE")
		for _, cat := range r.TopCategories {
			fmt.Fprintf(w, "%s\t%d\t%s\n", cat.Category, cat.Quantity, cat.Revenue.StringFixed(2))
		}
	case "dashboard":
		d, err := c.Dashboard(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "products\t%d\nunits in stock\t%d\ntoday\t%s (%d sales)\n", d.TotalProducts, d.TotalStock, d.TodaySales.StringFixed(2), d.TodayCount)
		if d.TotalProfit != nil {
			fmt.Fprintf(w, "all-time profit\t%s\n", d.TotalProfit.StringFixed(2))
		}
		if d.MySalesTotal != nil && d.MySalesCount != nil {
			fmt.Fprintf(w, "my sales\t%s (%d)\n", d.MySalesTotal.StringFixed(2), *d.MySalesCount)
		}
		if len(d.LowStock) > 0 {
			fmt.Fprintf(w, "\nLOW STOCK (< %d)\tSTOCK\n", d.LowStockThreshold)
			for _, p := range d.LowStock {
				fmt.Fprintf(w, "%s\t%d\n", p.Name, p.Stock)
			}
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

// resolveProduct accepts a SKU or a product id.
func resolveProduct(ctx context.Context, c *client.Client, ref string) (string, error) {
	ps, err := c.Products(ctx, ref, "")
	if err != nil {
		return "", err
	}
	for _, p := range ps {
		if strings.EqualFold(p.SKU, ref) || p.ID == ref {
			return p.ID, nil
		}
	}
	return ref, nil
}

func fail(err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			msg = fmt.Sprintf("not enough stock: only %d left", apiErr.Available)
		}
	case errors.Is(err, domain.ErrForbidden):
		msg = "your role is not allowed to do that"
	}
	fmt.Fprintln(os.Stderr, "boutiquectl:", msg)
	os.Exit(1)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
