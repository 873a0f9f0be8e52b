package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/calculator"
	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/internal/history"
	"github.com/iwvelando/mortgage-calculator/internal/logging"
	"github.com/iwvelando/mortgage-calculator/internal/report"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/output"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// resolveOutputFormat applies the CLI override, then the config file, then
// falls back to pretty on a terminal and CSV when stdout is redirected.
func resolveOutputFormat(flagValue, configValue string, isTerminal bool) string {
	if flagValue != "" {
		return flagValue
	}
	if configValue != "" {
		return configValue
	}
	if isTerminal {
		return constants.OutputFormatPretty
	}
	return constants.OutputFormatCSV
}

func writeOutput(w io.Writer, format string, results []calculator.Calculation) error {
	switch format {
	case constants.OutputFormatPretty:
		return output.PrettyFormat(w, results)
	case constants.OutputFormatCSV:
		return output.CsvFormat(w, results)
	case constants.OutputFormatJSON:
		return output.JSONFormat(w, results)
	}
	return validation.ValidateOutputFormat(format)
}

// writeReports renders one PDF per calculation into dir.
func writeReports(logger *zap.Logger, dir string, results []calculator.Calculation) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create report directory %s: %w", dir, err)
	}

	for _, result := range results {
		pdf, err := report.Generate(result)
		if err != nil {
			return fmt.Errorf("scenario %s: %w", result.Name, err)
		}

		path := filepath.Join(dir, report.Filename(result.Name))
		if err := os.WriteFile(path, pdf, 0644); err != nil {
			return fmt.Errorf("failed to write report %s: %w", path, err)
		}

		logger.Info(fmt.Sprintf("wrote report for %s", result.Name),
			zap.String("op", "main.writeReports"),
			zap.String("path", path),
		)
	}
	return nil
}

// saveHistory records every calculation in the configured Postgres store.
func saveHistory(ctx context.Context, logger *zap.Logger, dsn string, results []calculator.Calculation) error {
	if dsn == "" {
		return fmt.Errorf("storage.postgresDSN must be set to save calculations")
	}

	store, err := history.NewPostgresStore(ctx, logger, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Warn("failed to close history store",
				zap.String("op", "main.saveHistory"),
				zap.Error(closeErr),
			)
		}
	}()

	for _, result := range results {
		if err := store.Save(ctx, history.NewRecord(result)); err != nil {
			return fmt.Errorf("scenario %s: %w", result.Name, err)
		}
	}

	logger.Info(fmt.Sprintf("saved %d calculations", len(results)),
		zap.String("op", "main.saveHistory"),
	)
	return nil
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	pdfDir := flag.String("pdf", "", "directory to write one PDF report per scenario")
	save := flag.Bool("save", false, "record the calculations in the configured history database")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := resolveOutputFormat(*outputFormatFlag, conf.Output.Format, term.IsTerminal(int(os.Stdout.Fd())))
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	results, err := calculator.GetCalculations(logger, *conf)
	if err != nil {
		logger.Fatal("failed to compute calculations",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if err := writeOutput(os.Stdout, outputFormat, results); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if *pdfDir != "" {
		if err := writeReports(logger, *pdfDir, results); err != nil {
			logger.Fatal("failed to write reports",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	if *save {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := saveHistory(ctx, logger, conf.Storage.PostgresDSN, results); err != nil {
			logger.Error("failed to save calculations",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}
}
