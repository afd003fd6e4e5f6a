package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/biomarker-range-server/internal/config"
	"github.com/biomarker-range-server/internal/domain"
	"github.com/biomarker-range-server/internal/logging"
	"github.com/biomarker-range-server/internal/service"
	"github.com/biomarker-range-server/pkg/biomarker"
	"github.com/biomarker-range-server/pkg/external"
)

type rootOptions struct {
	configFile string
	logLevel   string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "biomarkerctl",
		Short:         "Inspect biomarker reference ranges",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "Config file (default: search ./config.yaml, ./config, /etc/biomarker-range-server)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level written to stderr")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of a table")

	rootCmd.AddCommand(newShowCmd(opts), newClassifyCmd(opts), newNormalizeCmd(opts))
	return rootCmd
}

func (o *rootOptions) logger() *logrus.Logger {
	logger, err := logging.NewLogger(domain.LoggingConfig{Level: o.logLevel, Format: "text", Output: "stderr"})
	if err != nil {
		return logrus.StandardLogger()
	}
	return logger
}

func (o *rootOptions) loadConfig() (*config.Manager, error) {
	manager, err := config.NewManagerWithFile(o.configFile)
	if err != nil {
		return nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return manager, nil
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var localPath, sheetURL string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Load the dashboard biomarkers and print their status",
		Long: `Run one load cycle against the configured sources and print every dashboard
biomarker with its status, ranges and graph bounds.

--sheet-url and --local override the configured sources.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager, err := opts.loadConfig()
			if err != nil {
				return err
			}
			cfg := manager.GetConfig()
			if sheetURL != "" {
				cfg.Source.SheetURL = sheetURL
			}
			if localPath != "" {
				cfg.Source.LocalPath = localPath
			}

			logger := opts.logger()
			source, _, err := service.NewRowSource(cfg.Source, cfg.Dashboard.Biomarkers, logger)
			if err != nil {
				return err
			}
			svc := service.NewDashboardService(source, nil, cfg.Dashboard, 0, logger)

			snap, err := svc.Load(cmd.Context())
			if err != nil {
				return err
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %s (%s source, %s, loaded %s)\n\n",
				snap.ID, snap.Origin, snap.Demographic, snap.LoadedAt.Format(time.RFC3339))
			return writeViews(cmd.OutOrStdout(), snap.Biomarkers)
		},
	}

	cmd.Flags().StringVar(&localPath, "local", "", "Local CSV file")
	cmd.Flags().StringVar(&sheetURL, "sheet-url", "", "Published CSV export URL of the spreadsheet")
	return cmd
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	params := service.ClassifyParams{}

	cmd := &cobra.Command{
		Use:   "classify VALUE",
		Short: "Classify a value against range notations",
		Example: `  biomarkerctl classify 0.63 --optimal 0.7-1.2 --in-range 1.2-1.5
  biomarkerctl classify 4 --optimal "<5" --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(strings.TrimSpace(args[0]), 64)
			if err != nil {
				return domain.NewValidationError("value", "must be a number", args[0])
			}
			params.Value = value

			result := service.ClassifyRanges(params)
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Status:    %s\n", result.Status.Label())
			fmt.Fprintf(w, "Ranges:    %s\n", formatRanges(result.Ranges))
			fmt.Fprintf(w, "Graph:     %s - %s\n", formatNumber(result.GraphMin), formatNumber(result.GraphMax))
			fmt.Fprintf(w, "Marker:    %.1f%%\n", result.Indicator.MarkerPercent)
			fmt.Fprintf(w, "Deviation: %s\n", result.Indicator.Deviation)
			return nil
		},
	}

	cmd.Flags().StringVar(&params.Optimal, "optimal", "", "Optimal range, e.g. 70-99")
	cmd.Flags().StringVar(&params.InRange, "in-range", "", "In-range band")
	cmd.Flags().StringVar(&params.OutOfRange, "out-of-range", "", "Out-of-range band")
	cmd.Flags().StringVar(&params.GraphRange, "graph-range", "", "Explicit graph bounds")
	return cmd
}

func newNormalizeCmd(opts *rootOptions) *cobra.Command {
	var (
		file        string
		demographic string
		valueColumn string
		value       float64
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize every biomarker row of a CSV file",
		Long: `Decode a CSV export, drop rows without a biomarker name and build the normalized
entity of every remaining row for one demographic.

The value classified for each row comes from --value-column when that cell holds a number,
otherwise from --value.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open CSV: %w", err)
			}
			defer f.Close()

			rows, err := external.DecodeCSV(f)
			if err != nil {
				return err
			}
			rows = external.FilterRows(rows)
			if len(rows) == 0 {
				return domain.NewNoValidRowsError(file, 0)
			}

			normalizer := biomarker.NewNormalizer(opts.logger())
			views := make([]domain.BiomarkerView, 0, len(rows))
			for _, row := range rows {
				v := value
				if raw, ok := row.Get(valueColumn); ok && valueColumn != "" {
					if parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
						v = parsed
					}
				}
				entity := normalizer.Build(row, v, demographic)
				views = append(views, domain.BiomarkerView{Entity: entity, Indicator: biomarker.Indicator(entity)})
			}

			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), views)
			}
			return writeViews(cmd.OutOrStdout(), views)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to read (required)")
	cmd.Flags().StringVarP(&demographic, "demographic", "d", "Male_18-39", "Demographic key")
	cmd.Flags().StringVar(&valueColumn, "value-column", "", "Column holding the current value")
	cmd.Flags().Float64Var(&value, "value", 0, "Value used when no value column is given")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeViews(w io.Writer, views []domain.BiomarkerView) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tVALUE\tUNIT\tSTATUS\tRANGES\tGRAPH\tDEVIATION")
	for _, v := range views {
		e := v.Entity
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s-%s\t%s\n",
			e.Name, formatNumber(e.Value), e.Unit, e.Status.Label(), formatRanges(e.Ranges),
			formatNumber(e.GraphMin), formatNumber(e.GraphMax), v.Indicator.Deviation)
	}
	return tw.Flush()
}

func formatRanges(r domain.RangeSet) string {
	var parts []string
	add := func(label string, iv *domain.Interval) {
		if iv != nil {
			parts = append(parts, fmt.Sprintf("%s %s-%s", label, formatNumber(iv.Min), formatNumber(iv.Max)))
		}
	}
	add("optimal", r.Optimal)
	add("in-range", r.InRange)
	add("out-of-range", r.OutOfRange)
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// formatNumber prints at most four decimals without trailing zeros.
func formatNumber(f float64) string {
	return strconv.FormatFloat(math.Round(f*1e4)/1e4, 'f', -1, 64)
}
