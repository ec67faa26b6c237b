package sweep

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/agentx-labs/brat/internal/platform"
)

const (
	reportFileName = "last-sweep.json"
	// DefaultReportMaxAge is how old the last sweep may be before the CLI
	// suggests running another one.
	DefaultReportMaxAge = 24 * time.Hour
)

// ReportSummary is the persisted digest of the last sweep.
type ReportSummary struct {
	ID        string          `json:"id"`
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Installed int             `json:"installed"`
	Unchanged int             `json:"unchanged"`
	Failed    int             `json:"failed"`
	Failures  []FailureRecord `json:"failures,omitempty"`
}

// FailureRecord is one failed item in a ReportSummary.
type FailureRecord struct {
	Repository string `json:"repository"`
	Stage      string `json:"stage"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

// Summary condenses r for persistence.
func (r Report) Summary() *ReportSummary {
	sum := &ReportSummary{
		ID:        r.ID,
		StartedAt: r.Started,
		Duration:  r.Duration,
		Installed: r.Count(StatusInstalled),
		Unchanged: r.Count(StatusUnchanged),
		Failed:    r.Count(StatusFailed),
	}
	for _, o := range r.Failures() {
		sum.Failures = append(sum.Failures, FailureRecord{
			Repository: o.Repository,
			Stage:      string(o.Stage),
			Reason:     o.Reason(),
			Message:    o.Err.Error(),
		})
	}
	return sum
}

// LoadReport reads the last sweep summary from the config directory.
// Returns nil, nil if no sweep has been recorded yet.
func LoadReport(configDir string) (*ReportSummary, error) {
	path := filepath.Join(configDir, reportFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sweep report: %w", err)
	}

	var sum ReportSummary
	if err := json.Unmarshal(data, &sum); err != nil {
		return nil, fmt.Errorf("parsing sweep report: %w", err)
	}
	return &sum, nil
}

// SaveReport writes the sweep summary to the config directory.
func SaveReport(configDir string, sum *ReportSummary) error {
	if err := os.MkdirAll(configDir, platform.DirMode); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling sweep report: %w", err)
	}

	path := filepath.Join(configDir, reportFileName)
	if err := os.WriteFile(path, data, platform.FileMode); err != nil {
		return fmt.Errorf("writing sweep report: %w", err)
	}
	return nil
}

// IsReportStale returns true if the summary is older than maxAge or nil.
func IsReportStale(sum *ReportSummary, maxAge time.Duration) bool {
	if sum == nil {
		return true
	}
	return time.Since(sum.StartedAt) > maxAge
}

// PrintStaleNotice prints a reminder to w when the last recorded sweep is
// older than maxAge or had failures. Read errors are ignored.
func PrintStaleNotice(w io.Writer, configDir, cliName string, maxAge time.Duration) {
	sum, err := LoadReport(configDir)
	if err != nil {
		return
	}
	switch {
	case sum == nil:
		return
	case IsReportStale(sum, maxAge):
		fmt.Fprintf(w, "\nLast update check was %s ago\n", time.Since(sum.StartedAt).Round(time.Minute))
		fmt.Fprintf(w, "    Run `%s update` to check for new beta releases\n\n", cliName)
	case sum.Failed > 0:
		fmt.Fprintf(w, "\n%d item(s) failed in the last update check\n", sum.Failed)
		fmt.Fprintf(w, "    Run `%s update` to retry\n\n", cliName)
	}
}
