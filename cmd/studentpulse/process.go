package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"studentpulse/internal/config"
	"studentpulse/internal/infrastructure"
	"studentpulse/internal/services"
	"studentpulse/pkg/contracts/domain"
)

// processOptions are the flags of the process command
type processOptions struct {
	Path     string
	Cleaning domain.CleaningOptions
	Charts   []string
	Format   string
	OutDir   string
}

func newProcessCmd(loadConfig func() (*config.Config, error)) *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process FILE",
		Short: "Analyze one file and write the results",
		Long: `Process loads FILE, applies the selected cleaning steps, prints the
statistical summary and writes the processed data and the requested charts
into the output directory. A PDF only has its text printed.

Example:
  studentpulse process marks.csv --remove-duplicates --fill-numeric --charts bar,pass_fail --format excel --out results`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := infrastructure.NewLogger(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer infrastructure.CloseLogFile()

			opts.Path = args[0]
			return runProcess(cmd.Context(), cfg, opts, cmd.OutOrStdout(), logger)
		},
	}

	cmd.Flags().BoolVar(&opts.Cleaning.RemoveDuplicates, "remove-duplicates", false, "Remove duplicate records")
	cmd.Flags().BoolVar(&opts.Cleaning.FillNumericNA, "fill-numeric", false, "Fill missing numeric values with the column mean")
	cmd.Flags().BoolVar(&opts.Cleaning.FillCategoricalNA, "fill-categorical", false, "Fill missing text values with the column mode")
	cmd.Flags().BoolVar(&opts.Cleaning.DropNARows, "drop-na", false, "Drop rows that still have missing values")
	cmd.Flags().StringSliceVar(&opts.Charts, "charts", nil, "Charts to render: bar, heatmap, pass_fail")
	cmd.Flags().StringVar(&opts.Format, "format", "csv", "Export format: csv or excel")
	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", ".", "Output directory")

	return cmd
}

// runProcess runs the pipeline once over a local file
func runProcess(ctx context.Context, cfg *config.Config, opts processOptions, out io.Writer, logger *slog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	format, err := domain.ParseExportFormat(opts.Format)
	if err != nil {
		return err
	}
	var charts domain.ChartOptions
	for _, name := range opts.Charts {
		kind, err := domain.ParseChartKind(name)
		if err != nil {
			return err
		}
		charts.Enable(kind)
	}

	pipeline := services.NewPipeline(cfg, logger)
	if _, err := pipeline.Validator.ValidateInputFile(opts.Path); err != nil {
		return err
	}
	svc := services.NewDashboardService(pipeline, nil, nil, cfg.Upload.PreviewRows, logger)

	f, err := os.Open(opts.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", opts.Path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", opts.Path, err)
	}

	loaded, err := svc.Load(ctx, filepath.Base(opts.Path), info.Size(), f)
	if err != nil {
		return err
	}
	if loaded.Kind == domain.LoadDocument {
		fmt.Fprintln(out, "Extracted PDF Text")
		fmt.Fprintln(out, loaded.Text)
		return nil
	}

	analysis, cleaned, err := svc.Run(ctx, loaded.Dataset, services.AnalysisOptions{Cleaning: opts.Cleaning, Charts: charts})
	if err != nil {
		return err
	}
	printAnalysis(out, analysis)

	if err := pipeline.Validator.ValidateOutputDirectory(opts.OutDir); err != nil {
		return err
	}

	var written []string
	path, err := svc.SaveDataset(ctx, cleaned, format, opts.OutDir)
	if err != nil {
		return err
	}
	written = append(written, path)

	for _, img := range analysis.Charts {
		path := filepath.Join(opts.OutDir, string(img.Kind)+".png")
		if err := os.WriteFile(path, img.PNG, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}

	for _, w := range analysis.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w.Message)
	}
	for _, path := range written {
		fmt.Fprintf(out, "Wrote %s\n", path)
	}
	fmt.Fprintln(out, "Data ready for download!")
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
}

func printAnalysis(out io.Writer, a services.Analysis) {
	fmt.Fprintln(out, "Preview of Student Data")
	fmt.Fprintln(out, newTable(a.Names, a.Preview).Render())
	fmt.Fprintf(out, "Total Students: %s\n", strconv.Itoa(a.Rows))
	fmt.Fprintf(out, "Total Columns: %s\n", strconv.Itoa(a.Columns))

	for _, notice := range a.Notices {
		fmt.Fprintln(out, notice)
	}

	fmt.Fprintln(out, "Statistical Summary")
	if len(a.Summary.Columns) == 0 {
		fmt.Fprintln(out, "No numeric columns to summarize.")
		return
	}
	headers := append([]string{""}, a.Summary.Columns...)
	fmt.Fprintln(out, newTable(headers, a.Summary.Table()).Render())
}
