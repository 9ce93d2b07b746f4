package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"granttrack/adapters/excel"
	"granttrack/app"
	"granttrack/internal/config"
	"granttrack/internal/container"

	"github.com/spf13/cobra"
)

// session is one CLI run over an in-memory tracker
type session struct {
	tracker *app.TrackerService
	out     io.Writer
	asJSON  bool
}

func newSession(out io.Writer, asJSON bool) (*session, error) {
	cfg, err := config.LoadOffline()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	c.InitInMemory(nil)
	return &session{tracker: c.Tracker, out: out, asJSON: asJSON}, nil
}

// load reads a spreadsheet and imports it, inferring its match column
func (s *session) load(ctx context.Context, path string) (*app.ImportResult, error) {
	ds, err := excel.NewDataReader(path).ReadDataset("")
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.tracker.ImportDataset(ctx, ds)
}

func (s *session) printJSON(v interface{}) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(out io.Writer) *cobra.Command {
	var asJSON bool

	rootCmd := &cobra.Command{
		Use:           "granttrack",
		Short:         "Offline tools for funding-proposal spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	open := func() (*session, error) { return newSession(out, asJSON) }
	rootCmd.AddCommand(
		newInferColumnCmd(open),
		newExtractCodesCmd(open),
		newBalanceCmd(open),
		newMatchCmd(open),
	)
	return rootCmd
}

type opener func() (*session, error)

func newInferColumnCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "infer-column FILE",
		Short: "Pick the column that identifies proposals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := open()
			if err != nil {
				return err
			}
			res, err := s.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			inf := res.Inference
			if s.asJSON {
				return s.printJSON(inf)
			}

			fmt.Fprintf(s.out, "match column: %s (confidence %s", inf.Column, inf.Confidence)
			if inf.Fallback != "" {
				fmt.Fprintf(s.out, ", fallback %s", inf.Fallback)
			}
			fmt.Fprintln(s.out, ")")
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "HEADER\tSCORE\tUNIQUE\tCOMPLETE\tFILE-LIKE")
			for _, sc := range inf.Scores {
				fmt.Fprintf(tw, "%s\t%.1f\t%.2f\t%.2f\t%.2f\n", sc.Header, sc.Score, sc.Uniqueness, sc.Completeness, sc.FileRatio)
			}
			return tw.Flush()
		},
	}
}

func newExtractCodesCmd(open opener) *cobra.Command {
	var column string

	cmd := &cobra.Command{
		Use:   "extract-codes FILE",
		Short: "Find the speedtype code of every proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open()
			if err != nil {
				return err
			}
			res, err := s.load(ctx, args[0])
			if err != nil {
				return err
			}
			ds := res.Dataset
			if column != "" {
				if ds, err = s.tracker.SetCodeColumn(ctx, ds.ID, column); err != nil {
					return err
				}
			}

			type row struct {
				Identity string `json:"identity"`
				Code     string `json:"code"`
				Source   string `json:"source"`
			}
			var rows []row
			for _, identity := range ds.AllIdentities() {
				code, err := s.tracker.ExtractCode(ctx, ds.ID, identity)
				if err != nil {
					return err
				}
				rows = append(rows, row{Identity: identity, Code: code.Code, Source: string(code.Source)})
			}
			if s.asJSON {
				return s.printJSON(rows)
			}

			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROPOSAL\tCODE\tSOURCE")
			for _, r := range rows {
				code := r.Code
				if code == "" {
					code = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Identity, code, r.Source)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&column, "column", "", "Header of the column holding codes")
	return cmd
}

func newBalanceCmd(open opener) *cobra.Command {
	var (
		dates     []string
		reviewers []string
		k         int
	)

	cmd := &cobra.Command{
		Use:   "balance FILE",
		Short: "Assign reviewers and meeting dates to every visible proposal",
		Long: `Assign k reviewers per proposal, spreading load evenly, and split the
proposals across meeting dates in row order.

Example: granttrack balance spring.xlsx --date 2025-03-01 --date 2025-03-15 --reviewer Ana --reviewer Ben --reviewer Cy --k 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open()
			if err != nil {
				return err
			}
			res, err := s.load(ctx, args[0])
			if err != nil {
				return err
			}
			result, err := s.tracker.RunAssignmentBalancer(ctx, res.Dataset.ID, app.BalanceInput{
				Dates: dates,
				Pool:  reviewers,
				K:     k,
			})
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.printJSON(result)
			}

			plan := result.Plan
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROPOSAL\tDUE\tREVIEWERS")
			for _, identity := range plan.Order {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", identity, plan.DueDates[identity], strings.Join(plan.Assignments[identity], ", "))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			sum := result.Summary
			fmt.Fprintf(s.out, "\nloads: min %.0f, max %.0f, mean %.2f, sd %.2f across %d reviewers\n",
				sum.Min, sum.Max, sum.Mean, sum.StdDev, len(plan.Pool))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&dates, "date", nil, "Meeting date YYYY-MM-DD (repeatable)")
	cmd.Flags().StringSliceVar(&reviewers, "reviewer", nil, "Reviewer name (repeatable)")
	cmd.Flags().IntVar(&k, "k", 0, "Reviewers per proposal (default from DEFAULT_REVIEWERS_PER_PROPOSAL)")
	return cmd
}

func newMatchCmd(open opener) *cobra.Command {
	var cycles []string

	cmd := &cobra.Command{
		Use:   "match FILE IDENTITY",
		Short: "Find a proposal in other funding cycles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := open()
			if err != nil {
				return err
			}
			active, err := s.load(ctx, args[0])
			if err != nil {
				return err
			}
			for _, path := range cycles {
				if _, err := s.load(ctx, path); err != nil {
					return err
				}
			}

			result, err := s.tracker.FindCrossCycleMatches(ctx, active.Dataset.ID, args[1])
			if err != nil {
				return err
			}
			if s.asJSON {
				return s.printJSON(result)
			}

			fmt.Fprintf(s.out, "%s: %s across %d cycles", result.Identity, result.Status, result.Searched)
			if result.Ambiguous {
				fmt.Fprint(s.out, " (ambiguous)")
			}
			fmt.Fprintln(s.out)
			if len(result.Candidates) == 0 {
				return nil
			}
			tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CYCLE\tPROPOSAL\tSCORE\tREQUESTED\tGIVEN")
			for _, c := range result.Candidates {
				fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n", c.DatasetName, c.Identity, c.Score, amount(c.Requested.Valid, c.Requested.Decimal.StringFixed(2)), amount(c.Given.Valid, c.Given.Decimal.StringFixed(2)))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(s.out, "\ntotal requested %s, given %s\n", result.Totals.Requested.StringFixed(2), result.Totals.Given.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&cycles, "cycle", nil, "Spreadsheet of another funding cycle (repeatable)")
	return cmd
}

func amount(valid bool, s string) string {
	if !valid {
		return "-"
	}
	return s
}
