package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/greenbasket/greenbasket/internal/di"
	"github.com/greenbasket/greenbasket/internal/extract"
	"github.com/greenbasket/greenbasket/internal/ports"
	"github.com/greenbasket/greenbasket/internal/report"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the estimation
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run estimates one grocery list and prints the report
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	builder *report.Builder,
	extractor *extract.Service,
	assistant ports.LLMAssistant,
) error {
	defer logger.Sync()

	text, err := readList(flags, logger)
	if err != nil {
		return err
	}

	items := extractor.ParseText(text)

	// Print list summary
	fmt.Printf("\n=== Grocery List ===\n")
	if len(items) == 0 {
		fmt.Printf("No items recognized in %q\n", text)
	}
	for _, item := range items {
		fmt.Printf("%g %s %s\n", item.Qty, item.Unit, item.Name)
	}

	startTime := time.Now()

	rep := builder.BuildFromItems(context.Background(), "cli", items, text)
	duration := time.Since(startTime)

	// Print report
	fmt.Printf("\n=== Report ===\n")
	fmt.Printf("%s\n", rep.Text)
	fmt.Printf("\nProcessing time: %v\n", duration)

	// Close any resources that need closing
	if closer, ok := assistant.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close AI assistant", zap.Error(err))
		}
	}

	return nil
}

// readList returns the grocery list text from the -items flag, an input
// file, or stdin
func readList(flags *di.CLIFlags, logger *zap.Logger) (string, error) {
	if flags.Items != "" {
		return flags.Items, nil
	}

	if flags.InputFile != "" {
		data, err := os.ReadFile(flags.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		logger.Info("Reading grocery list from file", zap.String("file", flags.InputFile))
		return string(data), nil
	}

	logger.Info("Reading grocery list from stdin")
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
