package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/verdantis/leafscan/internal/batch"
)

// batchCmd represents the batch command.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify directories of leaf photos in parallel",
	Long: `Classify many leaf photos at once using a worker pool.

Arguments may be files or directories. Directories are scanned for
supported images (JPEG, PNG, BMP); use --recursive to descend into
subdirectories and --include/--exclude to filter by file name.

Examples:
  leafscan batch ./orchard-photos
  leafscan batch ./photos --recursive --workers 8 --format json
  leafscan batch ./photos --include "leaf_*.jpg" --continue-on-error`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files or directories provided")
	}

	cfg := GetConfig()

	bCfg := batch.DefaultConfig()
	bCfg.ModelsDir = cfg.ModelsDir
	bCfg.ModelPath = cfg.Pipeline.Classifier.ModelPath
	bCfg.LabelsPath = cfg.Pipeline.LabelsPath
	bCfg.UseServerModel = cfg.Pipeline.Classifier.UseServerModel
	bCfg.NumThreads = cfg.Pipeline.Classifier.NumThreads
	bCfg.Threshold = cfg.Pipeline.Threshold
	bCfg.TopN = cfg.Pipeline.TopN
	bCfg.Format = cfg.Output.Format
	bCfg.OutputFile = cfg.Output.File

	if cmd.Flags().Changed("format") {
		bCfg.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("output") {
		bCfg.OutputFile, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("threshold") {
		bCfg.Threshold, _ = cmd.Flags().GetFloat64("threshold")
	}
	if cmd.Flags().Changed("top") {
		bCfg.TopN, _ = cmd.Flags().GetInt("top")
	}
	if cmd.Flags().Changed("model") {
		bCfg.ModelPath, _ = cmd.Flags().GetString("model")
	}
	if cmd.Flags().Changed("labels") {
		bCfg.LabelsPath, _ = cmd.Flags().GetString("labels")
	}
	if cmd.Flags().Changed("server-model") {
		bCfg.UseServerModel, _ = cmd.Flags().GetBool("server-model")
	}
	if cmd.Flags().Changed("threads") {
		bCfg.NumThreads, _ = cmd.Flags().GetInt("threads")
	}
	if cmd.Flags().Changed("workers") {
		bCfg.Workers, _ = cmd.Flags().GetInt("workers")
	}
	bCfg.Recursive, _ = cmd.Flags().GetBool("recursive")
	bCfg.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")
	bCfg.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	bCfg.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")

	if bCfg.Workers <= 0 {
		return fmt.Errorf("invalid worker count: %d", bCfg.Workers)
	}
	if bCfg.Threshold < 0 || bCfg.Threshold > 1 {
		return fmt.Errorf("invalid confidence threshold: %.2f (must be between 0.0 and 1.0)", bCfg.Threshold)
	}
	switch bCfg.Format {
	case outputFormatText, outputFormatJSON, outputFormatCSV:
	default:
		return fmt.Errorf("invalid output format: %s", bCfg.Format)
	}

	result, err := batch.ProcessBatch(args, bCfg)
	if err != nil {
		return err
	}

	out, err := batch.FormatResults(result, bCfg.Format)
	if err != nil {
		return err
	}

	if bCfg.OutputFile != "" {
		if err := os.WriteFile(bCfg.OutputFile, []byte(out), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", bCfg.OutputFile); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addClassifyFlags(batchCmd)
	batchCmd.Flags().IntP("workers", "w", 0, "worker goroutines (0=number of CPUs)")
	batchCmd.Flags().BoolP("recursive", "r", false, "scan directories recursively")
	batchCmd.Flags().Bool("continue-on-error", false, "keep going when a file fails")
	batchCmd.Flags().StringSlice("include", nil, "include only files matching these glob patterns")
	batchCmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
}
