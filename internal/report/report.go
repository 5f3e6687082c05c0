// Package report renders the campaign run outcome as a JSON document and a
// console summary.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"

	"github.com/brandgate/creative-automation/internal/compliance"
	"github.com/brandgate/creative-automation/pkg/errors"
	"github.com/brandgate/creative-automation/pkg/json"
)

// Output is one composed creative and its compliance verdict.
type Output struct {
	Product           string             `json:"product"`
	Ratio             string             `json:"aspect_ratio"`
	OutputPath        string             `json:"output_path"`
	UploadKey         string             `json:"upload_key,omitempty"`
	Language          string             `json:"language"`
	TranslatedMessage string             `json:"translated_message"`
	AssetGenerated    bool               `json:"asset_generated"`
	Verdict           compliance.Verdict `json:"compliance"`
}

// Report is the full record of one pipeline run.
type Report struct {
	RunID           string                  `json:"run_id"`
	CampaignID      string                  `json:"campaign_id"`
	GeneratedAt     time.Time               `json:"generated_at"`
	DurationSeconds float64                 `json:"duration_seconds"`
	Legal           compliance.LegalVerdict `json:"legal"`
	Outputs         []Output                `json:"outputs"`
	Errors          []string                `json:"errors,omitempty"`
}

// New starts a report for a campaign run.
func New(campaignID string) *Report {
	return &Report{
		RunID:       uuid.New().String(),
		CampaignID:  campaignID,
		GeneratedAt: time.Now().UTC(),
	}
}

// Write stores the report as indented JSON under dir and returns the path.
func (r *Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("creating reports dir: %v", err))
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", r.CampaignID, r.GeneratedAt.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// PassCount returns how many outputs passed compliance.
func (r *Report) PassCount() int {
	n := 0
	for _, o := range r.Outputs {
		if o.Verdict.OverallPass {
			n++
		}
	}
	return n
}

// PrintSummary renders a human-readable run summary to w.
func (r *Report) PrintSummary(w io.Writer) {
	header := color.New(color.FgHiCyan, color.Bold)
	header.Fprintf(w, "Campaign %s (run %s)\n", r.CampaignID, r.RunID)

	if r.Legal.Blocked {
		color.New(color.FgHiRed, color.Bold).Fprintln(w, "BLOCKED by legal screening")
	}
	for _, f := range r.Legal.Findings {
		sevColor := color.New(color.FgYellow)
		if f.Severity == compliance.SeverityError {
			sevColor = color.New(color.FgHiRed)
		}
		sevColor.Fprintf(w, "  [%s] %s: %q\n", f.Severity, f.Category, f.Excerpt)
	}

	if len(r.Outputs) > 0 {
		table := tablewriter.NewWriter(w)
		if err := table.Append([]string{"Product", "Ratio", "Logo", "Colors", "Verdict"}); err != nil {
			fmt.Fprintf(w, "failed to render summary: %v\n", err)
			return
		}
		for _, o := range r.Outputs {
			verdict := color.New(color.FgHiGreen).Sprint("PASS")
			if !o.Verdict.OverallPass {
				verdict = color.New(color.FgHiRed).Sprint("FAIL")
			}
			row := []string{
				o.Product,
				o.Ratio,
				fmt.Sprintf("%.2f", o.Verdict.Logo.Confidence),
				fmt.Sprintf("%d matched", len(o.Verdict.MatchedColors)),
				verdict,
			}
			if err := table.Append(row); err != nil {
				fmt.Fprintf(w, "failed to append row: %v\n", err)
				continue
			}
		}
		if err := table.Render(); err != nil {
			fmt.Fprintf(w, "failed to render summary: %v\n", err)
		}
	}

	fmt.Fprintf(w, "%d/%d creatives passed, %d errors, %.2fs\n",
		r.PassCount(), len(r.Outputs), len(r.Errors), r.DurationSeconds)
	for _, e := range r.Errors {
		color.New(color.FgRed).Fprintf(w, "  error: %s\n", e)
	}
}
