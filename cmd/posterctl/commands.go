package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/agenthands/posterlens/internal/app"
	"github.com/agenthands/posterlens/internal/core/cluster"
	"github.com/agenthands/posterlens/internal/core/extraction"
	"github.com/agenthands/posterlens/internal/core/fingerprint"
	"github.com/agenthands/posterlens/internal/core/model"
	"github.com/agenthands/posterlens/internal/core/normalize"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <image>",
		Short: "Match a poster photo against the catalog, creating an event when new",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				res, err := a.Pipeline.Process(cmd.Context(), raw)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, res)
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, lookupRows(res), nil))
				return nil
			})
		},
	}
}

func lookupRows(res *model.PipelineResult) [][]string {
	rec := res.Record
	date := ""
	if rec.Date != nil {
		date = rec.Date.UTC().Format(time.RFC3339)
	}
	hash := ""
	if rec.Fingerprint != nil {
		hash = rec.Fingerprint.String()
	}
	return [][]string{
		{"action", res.Action},
		{"tier", res.Tier},
		{"id", rec.ID},
		{"title", rec.Title},
		{"date", date},
		{"location", rec.Location},
		{"price", rec.Price},
		{"image_hash", hash},
		{"source_url", rec.SourceURL},
	}
}

func newHashCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "hash <image>...",
		Short: "Print the perceptual fingerprint of each image",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			extractor := fingerprint.NewExtractor(cfg.Fingerprint)
			for _, path := range args {
				raw, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				_, fp, err := extractor.Extract(raw)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", fp, path)
			}
			return nil
		},
	}
}

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "compare <image>",
		Short: "Show the nearest catalog fingerprints to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				report, err := a.Pipeline.Debug(cmd.Context(), raw, top)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, report)
				}
				threshold := a.Config.Match.FingerprintMaxDistance
				rows := make([][]string, 0, len(report.Matches))
				for _, m := range report.Matches {
					verdict := ""
					if m.Distance <= threshold {
						verdict = "duplicate"
					}
					rows = append(rows, []string{m.Record.ID, m.Record.Title, m.Record.Fingerprint.String(), strconv.Itoa(m.Distance), verdict})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "query hash %s, %d fingerprinted records\n", report.QueryHash, report.TotalChecked)
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Title", "Stored hash", "Distance", ""},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&top, "top", "n", 20, "Number of nearest records to show")
	return cmd
}

func newParseCommand(ctx *commandContext) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "parse <text-file|->",
		Short: "Normalize recognized text and extract event fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			text := string(data)
			if !raw {
				text = normalize.New(cfg.Normalize).Normalize(text)
			}
			fields := extraction.NewParser(cfg.Parser, ctx.logger).Parse(text)
			if ctx.jsonOutput() {
				return writeJSON(cmd, fields)
			}
			date := ""
			if fields.Date != nil {
				date = fields.Date.Format(time.RFC3339)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, [][]string{
				{"title", fields.Title},
				{"date", date},
				{"price", fields.Price},
				{"location", fields.Location},
			}, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Skip text normalization")
	return cmd
}

func newDupesCommand(ctx *commandContext) *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:   "dupes",
		Short: "List groups of catalog records that look like the same poster",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd.Context(), func(a *app.App) error {
				switch method {
				case "components":
				case "lpa":
					a.Pipeline.Clusters = cluster.LabelPropagation{MaxDistance: a.Config.Match.FingerprintMaxDistance}
				default:
					return fmt.Errorf("unknown method %q (want components or lpa)", method)
				}

				groups, err := a.Pipeline.Duplicates(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, groups)
				}
				var rows [][]string
				for i, g := range groups {
					for _, rec := range g {
						rows = append(rows, []string{strconv.Itoa(i + 1), rec.ID, rec.Title, rec.Fingerprint.String()})
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d duplicate groups\n", len(groups))
				if len(rows) > 0 {
					fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Group", "ID", "Title", "Hash"}, rows,
						[]columnAlignment{alignRight}))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&method, "method", "components", "Grouping method: components or lpa")
	return cmd
}
