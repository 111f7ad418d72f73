package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/BowmanStephen/rep-co-pilot/internal/coaching"
	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type options struct {
	catalogPath string
	venues      []string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "compliancectl",
		Short: "Inspect and exercise the rep co-pilot compliance catalog",
		Long: `compliancectl runs the same compliance checks as the API against a policy
catalog on disk, or the built-in catalog when --catalog is not set.

Use it to validate a policy file before rollout and to see how a prompt
would be classified.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.catalogPath, "catalog", "", "policy catalog YAML (default: built-in catalog)")
	root.PersistentFlags().StringSliceVar(&opts.venues, "expensive-venue", nil, "extra venue names treated as expensive")

	root.AddCommand(checkCmd(opts))
	root.AddCommand(mealCmd(opts))
	root.AddCommand(policiesCmd(opts))
	root.AddCommand(validateCmd())
	return root
}

func (o *options) catalog() (*compliance.Catalog, string, error) {
	if o.catalogPath == "" {
		return compliance.DefaultCatalog(), "builtin", nil
	}
	loaded, err := compliance.LoadCatalog(o.catalogPath)
	if err != nil {
		return nil, "", err
	}
	return loaded.Catalog, loaded.Version, nil
}

func (o *options) engine() (*compliance.Engine, *compliance.Catalog, error) {
	catalog, _, err := o.catalog()
	if err != nil {
		return nil, nil, err
	}
	engine := compliance.NewEngine(catalog)
	if len(o.venues) > 0 {
		engine = engine.WithExpensiveVenues(o.venues)
	}
	return engine, catalog, nil
}

func checkCmd(opts *options) *cobra.Command {
	var (
		spend    compliance.SpendCheckInput
		withMeal bool
	)

	cmd := &cobra.Command{
		Use:   "check <text>",
		Short: "Classify a prompt and print the decision with its coaching card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, catalog, err := opts.engine()
			if err != nil {
				return err
			}

			var in *compliance.SpendCheckInput
			if withMeal || cmd.Flags().Changed("amount") {
				in = &spend
			}

			decision := engine.Decide(args[0], in)
			card := coaching.NewCardPresenter(compliance.NewHolder(catalog)).Present(decision)
			return writeJSON(cmd.OutOrStdout(), struct {
				Decision compliance.Decision `json:"decision"`
				Card     coaching.Card       `json:"card"`
			}{decision, card})
		},
	}

	addSpendFlags(cmd, &spend)
	cmd.Flags().BoolVar(&withMeal, "meal", false, "evaluate meal spend even when --amount is zero")
	return cmd
}

func mealCmd(opts *options) *cobra.Command {
	var spend compliance.SpendCheckInput

	cmd := &cobra.Command{
		Use:   "meal",
		Short: "Evaluate a proposed HCP meal against the spend limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			engine, _, err := opts.engine()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), engine.EvaluateMealSpend(spend))
		},
	}

	addSpendFlags(cmd, &spend)
	return cmd
}

func addSpendFlags(cmd *cobra.Command, spend *compliance.SpendCheckInput) {
	cmd.Flags().Float64Var(&spend.ProposedAmount, "amount", 0, "proposed meal total in USD")
	cmd.Flags().IntVar(&spend.HCPCount, "hcp-count", 1, "number of HCPs attending")
	cmd.Flags().StringVar(&spend.VenueHint, "venue", "", "restaurant or venue name")
	cmd.Flags().Float64Var(&spend.YTDAmountForHCP, "ytd", 0, "HCP meal spend so far this year in USD")
}

func policiesCmd(opts *options) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "policies",
		Short: "List the policies in the catalog",
		Long: `List the policies in the catalog as JSON.

With --yaml the catalog is written in the policy file format, so the built-in
catalog can be exported as a starting point for POLICY_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, version, err := opts.catalog()
			if err != nil {
				return err
			}
			if asYAML {
				raw, err := compliance.MarshalCatalog(catalog, version)
				if err != nil {
					return fmt.Errorf("failed to render catalog: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(raw)
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Version  string                   `json:"version"`
				Policies []compliance.PolicyLimit `json:"policies"`
			}{version, catalog.List()})
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "write the catalog as a policy YAML file")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a policy catalog file loads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := compliance.LoadCatalog(args[0])
			if err != nil {
				return fmt.Errorf("invalid catalog: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: version=%s policies=%d digest=%s\n",
				loaded.Version, loaded.Catalog.Len(), loaded.Digest)
			return err
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
