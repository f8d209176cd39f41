package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/verdantis/leafscan/internal/labels"
	"github.com/verdantis/leafscan/internal/models"
)

// labelsCmd represents the labels command.
var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Show the label catalog",
	Long: `Print the label catalog the classifier maps output indices to.

Each line of a label file has the form <species>___<status>; underscores
within each part render as spaces.

Examples:
  leafscan labels
  leafscan labels --labels custom_labels.txt --format json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		labelsPath, _ := cmd.Flags().GetString("labels")
		if labelsPath == "" {
			labelsPath = cfg.Pipeline.LabelsPath
		}
		if labelsPath == "" {
			labelsPath = models.GetLabelsPath(cfg.ModelsDir, models.LabelsPlantVillage)
		}

		catalog, err := labels.Load(labelsPath)
		if err != nil {
			return fmt.Errorf("failed to load labels from %s: %w", labelsPath, err)
		}

		format, _ := cmd.Flags().GetString("format")
		if format == outputFormatJSON {
			type entry struct {
				Index   int    `json:"index"`
				Species string `json:"species"`
				Status  string `json:"status"`
			}
			entries := make([]entry, catalog.Size())
			for i, l := range catalog.All() {
				entries[i] = entry{Index: i, Species: l.Species, Status: l.Status}
			}
			bts, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal JSON: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(bts))
			return nil
		}

		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%d label(s) from %s\n", catalog.Size(), labelsPath); err != nil {
			return err
		}
		for i, l := range catalog.All() {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s / %s\n", i, l.Species, l.Status); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelsCmd)
	labelsCmd.Flags().StringP("format", "f", "text", "output format (text, json)")
	labelsCmd.Flags().String("labels", "", "override label catalog path")
}
