package batch

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/verdantis/leafscan/internal/pipeline"
)

// FileResult pairs an image path with its classification for JSON output.
type FileResult struct {
	File   string           `json:"file"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// FormatResults renders a batch outcome in the requested format.
func FormatResults(batch *Result, format string) (string, error) {
	switch format {
	case "json":
		return formatJSON(batch)
	case "csv":
		return formatCSV(batch)
	case "text":
		return formatText(batch)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(batch *Result) (string, error) {
	out := make([]FileResult, len(batch.Results))
	for i, res := range batch.Results {
		out[i] = FileResult{File: batch.ImagePaths[i], Result: res}
		if res == nil {
			out[i].Error = "classification failed"
		}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatCSV(batch *Result) (string, error) {
	var sb strings.Builder
	for i, res := range batch.Results {
		if res == nil {
			continue
		}
		fmt.Fprintf(&sb, "# %s\n", batch.ImagePaths[i])
		csv, err := pipeline.ToCSV(res)
		if err != nil {
			return "", err
		}
		sb.WriteString(csv)
	}
	return sb.String(), nil
}

func formatText(batch *Result) (string, error) {
	var sb strings.Builder
	for i, res := range batch.Results {
		if res == nil {
			fmt.Fprintf(&sb, "%s: classification failed\n", batch.ImagePaths[i])
			continue
		}
		text, err := pipeline.ToPlainText(res)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "%s: %s", batch.ImagePaths[i], text)
	}
	fmt.Fprintf(&sb, "\n%d image(s) in %v with %d worker(s), %d failed\n",
		len(batch.ImagePaths), batch.Duration.Round(time.Millisecond), batch.WorkerCount, batch.Failed())
	return sb.String(), nil
}
