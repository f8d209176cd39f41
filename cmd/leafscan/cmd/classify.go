package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/verdantis/leafscan/internal/pipeline"
	"github.com/verdantis/leafscan/internal/preprocess"
)

const (
	outputFormatJSON = "json"
	outputFormatCSV  = "csv"
	outputFormatText = "text"
)

// classifyCmd represents the classify command.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify plant leaf photos",
	Long: `Classify one or more leaf photos into (species, health status) diagnoses.

Supported formats: JPEG, PNG, BMP

Examples:
  leafscan classify leaf.jpg
  leafscan classify *.png --format json
  leafscan classify leaf.jpg --threshold 0.8 --output result.json`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE:         runClassify,
}

func runClassify(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return errors.New("no input files provided")
	}

	cfg := GetConfig()

	modelsDir := cfg.ModelsDir
	modelPath := cfg.Pipeline.Classifier.ModelPath
	labelsPath := cfg.Pipeline.LabelsPath
	threshold := cfg.Pipeline.Threshold
	topN := cfg.Pipeline.TopN
	useServer := cfg.Pipeline.Classifier.UseServerModel
	numThreads := cfg.Pipeline.Classifier.NumThreads
	format := cfg.Output.Format
	outputFile := cfg.Output.File

	if threshold < 0 || threshold > 1 {
		return fmt.Errorf("invalid confidence threshold: %.2f (must be between 0.0 and 1.0)", threshold)
	}

	validFormats := []string{outputFormatText, outputFormatJSON, outputFormatCSV}
	isValidFormat := false
	for _, f := range validFormats {
		if format == f {
			isValidFormat = true
			break
		}
	}
	if !isValidFormat {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", format, strings.Join(validFormats, ", "))
	}

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Classifying %d image(s)\n", len(args)); err != nil {
		return fmt.Errorf("failed to write to stdout: %w", err)
	}

	b := pipeline.NewBuilder().
		WithModelsDir(modelsDir).
		WithServerModel(useServer).
		WithThreads(numThreads).
		WithThreshold(threshold).
		WithTopN(topN)
	if modelPath != "" {
		b = b.WithModelPath(modelPath)
	}
	if labelsPath != "" {
		b = b.WithLabelsPath(labelsPath)
	}

	pl, err := b.Build()
	if err != nil {
		return fmt.Errorf("failed to build classification pipeline: %w", err)
	}
	defer func() {
		if err := pl.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing pipeline: %v", err)
		}
	}()

	var outputs []string
	for _, pth := range args {
		if !preprocess.IsSupportedImage(pth) {
			return fmt.Errorf("unsupported image format: %s", pth)
		}
		img, meta, err := preprocess.LoadImage(pth)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", pth, err)
		}
		res, err := pl.ClassifyImage(img)
		if err != nil {
			return fmt.Errorf("classification failed for %s: %w", pth, err)
		}

		switch format {
		case outputFormatJSON:
			obj := struct {
				File   string           `json:"file"`
				Result *pipeline.Result `json:"result"`
			}{File: meta.Path, Result: res}
			bts, err := json.MarshalIndent(obj, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			outputs = append(outputs, string(bts))
		case outputFormatCSV:
			s, err := pipeline.ToCSV(res)
			if err != nil {
				return fmt.Errorf("format csv failed: %w", err)
			}
			if len(args) > 1 {
				s = "# " + meta.Path + "\n" + s
			}
			outputs = append(outputs, s)
		default:
			s, err := pipeline.ToPlainText(res)
			if err != nil {
				return fmt.Errorf("format text failed: %w", err)
			}
			outputs = append(outputs, fmt.Sprintf("%s: %s", meta.Path, s))
		}
	}

	final := strings.Join(outputs, "\n")
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(final), 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", outputFile); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), final); err != nil {
			return fmt.Errorf("failed to write final output: %w", err)
		}
	}
	return nil
}

func addClassifyFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "text", "output format (text, json, csv)")
	cmd.Flags().StringP("output", "o", "", "output file (default: stdout)")
	cmd.Flags().Float64("threshold", pipeline.DefaultThreshold, "minimum confidence to accept a diagnosis (0..1)")
	cmd.Flags().Int("top", pipeline.DefaultTopN, "number of ranked predictions to include")
	cmd.Flags().String("model", "", "override classifier model path (defaults to organized models path)")
	cmd.Flags().String("labels", "", "override label catalog path")
	cmd.Flags().Bool("server-model", false, "use the heavier server model variant")
	cmd.Flags().Int("threads", 0, "ONNX intra-op thread count (0=auto)")
}

// bindClassifyFlags binds classify flags to viper configuration keys.
func bindClassifyFlags(cmd *cobra.Command) {
	flagBindings := []struct {
		key  string
		flag string
	}{
		{"output.format", "format"},
		{"output.file", "output"},
		{"pipeline.threshold", "threshold"},
		{"pipeline.top_n", "top"},
		{"pipeline.classifier.model_path", "model"},
		{"pipeline.labels_path", "labels"},
		{"pipeline.classifier.use_server_model", "server-model"},
		{"pipeline.classifier.num_threads", "threads"},
	}
	for _, fb := range flagBindings {
		_ = viper.BindPFlag(fb.key, cmd.Flags().Lookup(fb.flag))
	}
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	addClassifyFlags(classifyCmd)
	bindClassifyFlags(classifyCmd)
}
