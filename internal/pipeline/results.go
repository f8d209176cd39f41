package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ToJSON serializes a single classification result to pretty JSON.
func ToJSON(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToJSONResults serializes multiple results to pretty JSON.
func ToJSONResults(results []*Result) (string, error) {
	b, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ToPlainText renders a human-readable summary line plus the ranked list.
func ToPlainText(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var sb strings.Builder
	switch res.Outcome {
	case "accepted":
		fmt.Fprintf(&sb, "%s (%s) confidence %.3f\n", res.Species, res.Status, res.Confidence)
	case "low_confidence":
		fmt.Fprintf(&sb, "no confident diagnosis (best %.3f)\n", res.Confidence)
	default:
		fmt.Fprintf(&sb, "%s\n", res.Outcome)
	}
	for i, p := range res.Top {
		name := p.Species
		if name == "" {
			name = fmt.Sprintf("index %d", p.Index)
		} else if p.Status != "" {
			name = name + " / " + p.Status
		}
		fmt.Fprintf(&sb, "  %d. %s %.3f\n", i+1, name, p.Probability)
	}
	return sb.String(), nil
}

// ToCSV exports the ranked prediction list as CSV with header.
func ToCSV(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"rank", "index", "species", "status", "probability"})
	for i, p := range res.Top {
		row := []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(p.Index),
			p.Species,
			p.Status,
			fmt.Sprintf("%.6f", p.Probability),
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.String(), nil
}

// ValidateResult performs simple consistency checks on a result.
func ValidateResult(res *Result) error {
	if res == nil {
		return errors.New("nil result")
	}
	if res.Width <= 0 || res.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", res.Width, res.Height)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		return fmt.Errorf("confidence %.3f out of range", res.Confidence)
	}
	for i, p := range res.Top {
		if p.Probability < 0 || p.Probability > 1 {
			return fmt.Errorf("prediction %d probability out of range", i)
		}
		if p.Index < 0 {
			return fmt.Errorf("prediction %d has negative index", i)
		}
	}
	return nil
}
