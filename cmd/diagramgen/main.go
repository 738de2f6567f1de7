// Command diagramgen turns a natural-language problem statement into a
// validated SVG diagram, end to end: NLP extraction, property-graph
// construction, ontology validation, diagram planning, scene building,
// domain-rule checking, constraint layout, and a bounded refinement loop.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/diagramgen/pkg/pipeline"
	"github.com/dshills/diagramgen/pkg/trace"
)

const version = "0.1.0"

var (
	configPath string
	outputDir  string
	seedFlag   uint64
	domainFlag string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:     "diagramgen",
	Short:   "Generate validated SVG diagrams from natural-language problem statements",
	Version: version,
}

var generateCmd = &cobra.Command{
	Use:   "generate [problem text]",
	Short: "Run the full pipeline against a problem statement and write an SVG",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Inspect a persisted detailed trace record",
}

var traceShowCmd = &cobra.Command{
	Use:   "show <trace-file.json>",
	Short: "Print a saved detailed trace as a component timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceShow,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate pipeline configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <config.yaml>",
	Short: "Load a configuration file and report whether it is valid",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	generateCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML configuration file (optional, defaults used if omitted)")
	generateCmd.Flags().StringVar(&outputDir, "output", "output", "Output directory for the SVG, property graph, and trace")
	generateCmd.Flags().Uint64Var(&seedFlag, "seed", 0, "Override the seed from config (0 = use config/auto seed)")
	generateCmd.Flags().StringVar(&domainFlag, "domain", "", "Override domain inference (electronics, mechanics, optics, chemistry, geometry)")

	traceCmd.AddCommand(traceShowCmd)
	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(generateCmd, traceCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	problemText := args[0]

	var cfg *pipeline.Config
	if configPath != "" {
		loaded, err := pipeline.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else {
		cfg = pipeline.DefaultConfig()
	}
	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if seedFlag != 0 {
		cfg.Seed = seedFlag
	}
	if domainFlag != "" {
		cfg.Domain = domainFlag
	}
	for _, unknown := range cfg.UnknownFields {
		fmt.Fprintf(os.Stderr, "warning: unrecognized config field %q ignored\n", unknown)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if verbose {
		fmt.Printf("Using seed: %d\n", cfg.Seed)
		fmt.Printf("Enabled tools: %v\n", cfg.EnabledTools)
	}

	gen := pipeline.NewGenerator(cfg)

	start := time.Now()
	result, err := gen.Generate(cmd.Context(), problemText)
	elapsed := time.Since(start)
	if err != nil {
		if result != nil {
			printWarnings(result)
		}
		return fmt.Errorf("generation failed: %w", err)
	}

	svgPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s.svg", result.Metadata.RequestID))
	if err := os.WriteFile(svgPath, result.SVG, 0644); err != nil {
		return fmt.Errorf("writing SVG: %w", err)
	}

	if verbose {
		fmt.Printf("Generation completed in %v\n", elapsed)
		fmt.Printf("Request ID: %s\n", result.Metadata.RequestID)
		fmt.Printf("Last completed phase: %s\n", result.Metadata.LastCompletedPhase)
		fmt.Printf("Degraded mode: %v\n", result.Metadata.DegradedMode)
		if result.Scene != nil {
			fmt.Printf("Objects: %d, Connectors: %d\n", len(result.Scene.Objects), len(result.Scene.Connectors))
		}
		printWarnings(result)
	}

	fmt.Printf("Wrote %s (request_id=%s) in %v\n", svgPath, result.Metadata.RequestID, elapsed)
	return nil
}

func printWarnings(result *pipeline.DiagramResult) {
	for _, w := range result.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	for _, e := range result.Errors {
		fmt.Fprintln(os.Stderr, "error:", e)
	}
}

func runTraceShow(cmd *cobra.Command, args []string) error {
	rec, err := trace.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Request %s\n", rec.RequestID)
	fmt.Printf("  started: %s\n", rec.StartedAt.Format(time.RFC3339))
	if !rec.EndedAt.IsZero() {
		fmt.Printf("  ended:   %s (%s)\n", rec.EndedAt.Format(time.RFC3339), rec.EndedAt.Sub(rec.StartedAt))
	}
	fmt.Println("  components:")
	for _, span := range rec.Spans {
		status := "ok"
		if span.Error != "" {
			status = "error: " + span.Error
		}
		fmt.Printf("    %-18s %6dms  %s\n", span.Name, span.DurationMS, status)
		for _, w := range span.Warnings {
			fmt.Printf("      ! %s\n", w)
		}
	}
	if len(rec.Events) > 0 {
		fmt.Println("  entity events:")
		for _, ev := range rec.Events {
			fmt.Printf("    [%s] %s %s %s\n", ev.Component, ev.Kind, ev.EntityID, ev.Detail)
		}
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := pipeline.LoadConfig(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid:", err)
		return err
	}
	fmt.Println("valid")
	for _, unknown := range cfg.UnknownFields {
		fmt.Printf("warning: unrecognized field %q\n", unknown)
	}
	if verbose {
		data, err := cfg.ToYAML()
		if err == nil {
			fmt.Println("---")
			fmt.Print(string(data))
		}
	}
	return nil
}
