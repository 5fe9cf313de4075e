// Command donate browses donation targets and starts donations against a
// running donation API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"donation-platform/internal/apiclient"
	"donation-platform/internal/drawer"
	"donation-platform/internal/models"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

type options struct {
	apiURL  string
	timeout time.Duration
}

func (o *options) client() *apiclient.Client {
	return apiclient.New(o.apiURL, apiclient.WithUserAgent("donate-cli/1.0"))
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:          "donate",
		Short:        "Browse donation targets and give from the command line",
		SilenceUsage: true,
	}
	root.SetOut(out)

	defaultURL := os.Getenv("DONATION_API_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", defaultURL, "Base URL of the donation API (env DONATION_API_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")

	root.AddCommand(newTargetsCmd(opts), newGiveCmd(opts))
	return root
}

func newTargetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:       "targets <campaign|program|patient>",
		Short:     "List the targets open for donations in a category",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"campaign", "program", "patient"},
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := models.ParseCategory(args[0])
			if err != nil {
				return err
			}
			if !category.RequiresTarget() {
				return fmt.Errorf("%s donations have no specific targets", category)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			source := drawer.APISource{Client: opts.client()}
			targets, err := source.ListTargets(ctx, category)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s targets are open right now.\n", category)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tRAISED\tGOAL\tPROGRESS")
			for _, t := range targets {
				fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%.0f%%\n", t.ID, t.Title, t.Raised, goalLabel(t.Goal), t.Progress)
			}
			return tw.Flush()
		},
	}
}

func goalLabel(goal float64) string {
	if goal <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", goal)
}

// printNavigator "redirects" by printing the payment link for the donor
type printNavigator struct {
	out io.Writer
}

func (n printNavigator) Redirect(paymentURL string) error {
	_, err := fmt.Fprintf(n.out, "Complete your donation at:\n  %s\n", paymentURL)
	return err
}

func newGiveCmd(opts *options) *cobra.Command {
	var (
		category  string
		targetID  int
		amount    float64
		name      string
		email     string
		phone     string
		message   string
		minAmount float64
	)

	cmd := &cobra.Command{
		Use:   "give",
		Short: "Start a donation and print the payment link",
		Example: `  donate give --category zakat --amount 50 --name "Amina" --email amina@example.org
  donate give --category patient --target 3 --amount 100 --name "Amina" --email amina@example.org`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := models.ParseCategory(category)
			if err != nil {
				return err
			}

			client := opts.client()
			d := drawer.New(drawer.APISource{Client: client}, client, printNavigator{out: cmd.OutOrStdout()}, minAmount)
			form, err := d.Open(drawer.Prefill{Category: parsed, TargetID: targetID, Amount: amount})
			if err != nil {
				return err
			}
			defer d.Close()

			form.Edit(func(f *drawer.Fields) {
				f.DonorName = name
				f.DonorEmail = email
				f.DonorPhone = phone
				f.Message = message
			})

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			err = form.Submit(ctx)
			var verrs drawer.ValidationErrors
			switch {
			case errors.As(err, &verrs):
				return fmt.Errorf("please fix the donation details:\n%s", formatFieldErrors(verrs))
			case err != nil:
				if banner := form.Banner(); banner != "" {
					return errors.New(banner)
				}
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&category, "category", string(models.CategoryGeneral), "general, zakat, campaign, program or patient")
	flags.IntVar(&targetID, "target", 0, "Target id for campaign, program and patient donations")
	flags.Float64Var(&amount, "amount", 0, "Amount to donate")
	flags.StringVar(&name, "name", "", "Donor name")
	flags.StringVar(&email, "email", "", "Donor email for the receipt")
	flags.StringVar(&phone, "phone", "", "Donor phone (optional)")
	flags.StringVar(&message, "message", "", "Message to the charity (optional)")
	flags.Float64Var(&minAmount, "min-amount", models.DefaultMinimumAmount, "Smallest amount accepted")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func formatFieldErrors(verrs drawer.ValidationErrors) string {
	var b strings.Builder
	fields := make([]string, 0, len(verrs))
	for field := range verrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		for _, msg := range verrs[field] {
			fmt.Fprintf(&b, "  %s %s\n", field, msg)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
