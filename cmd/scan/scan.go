package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bighogz/insider-ledger/internal/config"
	"github.com/bighogz/insider-ledger/internal/export"
	"github.com/bighogz/insider-ledger/internal/logging"
	"github.com/bighogz/insider-ledger/internal/pipeline"
	"github.com/bighogz/insider-ledger/internal/report"
)

type fetcherFactory func(cfg *config.Config, logger *zap.Logger) pipeline.Fetcher

func newRootCmd(newFetcher fetcherFactory) *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "scan TICKER",
		Short: "Print a ticker's insider sales and purchases",
		Long: `Scan fetches insider transactions for one ticker, keeps sales and
purchases on or after the cutoff date, and prints them with per-insider totals.

Examples:
  scan NVDA
  scan BRK.B --cutoff 2024-01-01 --xlsx out/
  scan AAPL --csv reports/ --config scan.yaml`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), cmd.OutOrStdout(), v, args[0], newFetcher)
		},
	}

	flags := cmd.Flags()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	flags.String("cutoff", "", "earliest event date, YYYY-MM-DD (default from INSIDERS_PIPELINE_CUTOFF)")
	flags.String("xlsx", "", "write one .xlsx per table into this directory")
	flags.String("csv", "", "write one .csv per table into this directory")
	flags.String("log-level", "warn", "log level")
	for _, name := range []string{"cutoff", "xlsx", "csv", "log-level"} {
		_ = v.BindPFlag(name, flags.Lookup(name))
	}
	// Same variable the API server reads for its default cutoff.
	_ = v.BindEnv("cutoff", config.Prefix+"_PIPELINE_CUTOFF")
	return cmd
}

// initConfig reads the optional config file and INSIDERS_* variables
// (INSIDERS_PIPELINE_CUTOFF, INSIDERS_XLSX, INSIDERS_CSV, INSIDERS_LOG_LEVEL).
func initConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}
	v.SetEnvPrefix(config.Prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return nil
}

func runScan(ctx context.Context, out io.Writer, v *viper.Viper, ticker string, newFetcher fetcherFactory) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(config.LoggingConfig{Level: v.GetString("log-level"), Format: "console"})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cutoff := cfg.Pipeline.Cutoff
	if s := v.GetString("cutoff"); s != "" {
		if cutoff, err = config.ParseCutoff(s); err != nil {
			return err
		}
	}

	svc := pipeline.NewService(newFetcher(cfg, logger), pipeline.Options{Logger: logger})
	rep := svc.Analyze(ctx, ticker, cutoff)
	if err := printReport(out, rep); err != nil {
		return err
	}
	if rep.Err != nil {
		return rep.Err
	}

	tables := rep.Tables()
	if dir := v.GetString("xlsx"); dir != "" {
		if err := writeTables(out, dir, "xlsx", rep.Ticker, tables, export.WriteXLSX); err != nil {
			return err
		}
	}
	if dir := v.GetString("csv"); dir != "" {
		if err := writeTables(out, dir, "csv", rep.Ticker, tables, export.WriteCSV); err != nil {
			return err
		}
	}
	return nil
}

func printReport(out io.Writer, rep pipeline.Report) error {
	fmt.Fprintf(out, "Insider transactions for %s since %s\n", rep.Ticker, rep.Cutoff.Format(report.DateLayout))
	if rep.Source != "" {
		fmt.Fprintf(out, "Source: %s\n", rep.Source)
	}
	switch {
	case rep.Notice != nil:
		fmt.Fprintf(out, "\n%s: %s\n", strings.ToUpper(string(rep.Notice.Level)), rep.Notice.Message)
	case rep.Result.IsEmpty():
		fmt.Fprintf(out, "\nNo sales or purchases on or after %s.\n", rep.Cutoff.Format(report.DateLayout))
	}
	tables := rep.Tables()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, k := range report.Kinds {
		t := tables.Table(k)
		fmt.Fprintf(tw, "\n%s:\n", t.Title)
		if len(t.Rows) == 0 {
			fmt.Fprintln(tw, "  (No data)")
			continue
		}
		fmt.Fprintln(tw, "  "+strings.Join(t.Header, "\t"))
		for _, row := range t.Rows {
			fmt.Fprintln(tw, "  "+strings.Join(row, "\t"))
		}
	}
	return tw.Flush()
}

func writeTables(out io.Writer, dir, ext, ticker string, tables report.Tables, write func(io.Writer, report.Table) error) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, k := range report.Kinds {
		path := filepath.Join(dir, export.Filename(ticker, k, ext))
		if err := writeFile(path, tables.Table(k), write); err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %s.\n", path)
	}
	return nil
}

func writeFile(path string, t report.Table, write func(io.Writer, report.Table) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}
	if err := write(f, t); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
