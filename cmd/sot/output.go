package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/sot/internal/pipeline"
	"github.com/ShayCichocki/sot/internal/state"
	"github.com/ShayCichocki/sot/pkg/models"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func parseFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

var headingStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("39"))

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, v any, format outputFormat) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %q is not structured", format)
	}
}

// writeOutcome prints the answer. Text output is the bare answer so it can be piped.
func writeOutcome(w io.Writer, out *pipeline.Outcome, format outputFormat) error {
	if format != formatText {
		return writeStructured(w, out, format)
	}
	_, err := fmt.Fprintln(w, out.Text)
	return err
}

// writeOutcomeStatus prints a one-line colored summary of the job.
func writeOutcomeStatus(w io.Writer, out *pipeline.Outcome) {
	elapsed := out.Duration.Round(time.Millisecond)
	id := shortID(out.JobID)

	if out.Answer == nil {
		color.New(color.FgGreen).Fprint(w, "✓ ")
		fmt.Fprintf(w, "answered in %s, %d tokens, ~$%.4f (job %s)\n", elapsed, out.OutputTokens, out.EstimatedCost, id)
		return
	}

	failures := out.Answer.Failures()
	if len(failures) == 0 {
		color.New(color.FgGreen).Fprint(w, "✓ ")
		fmt.Fprintf(w, "%d points in %s, %d tokens, ~$%.4f (job %s)\n",
			len(out.Answer.Sections), elapsed, out.OutputTokens, out.EstimatedCost, id)
		return
	}

	kinds := make([]string, 0, len(failures))
	for _, f := range failures {
		kinds = append(kinds, fmt.Sprintf("%d:%s", f.Index, f.ErrorKind))
	}
	color.New(color.FgYellow).Fprint(w, "⚠ ")
	fmt.Fprintf(w, "partial answer: %d of %d points failed [%s] in %s (job %s)\n",
		len(failures), len(out.Answer.Sections), strings.Join(kinds, ", "), elapsed, id)
}

func writeCancelNote(w io.Writer, note string) {
	color.New(color.FgYellow).Fprint(w, "✗ ")
	fmt.Fprintf(w, "job %s\n", note)
}

func writeBenchReport(w io.Writer, report *pipeline.BenchReport, format outputFormat) error {
	if format != formatText {
		return writeStructured(w, report, format)
	}

	fmt.Fprintln(w, headingStyle.Render("Benchmark: "+report.Query))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-4s %-9s %10s %8s %10s\n", "RUN", "MODE", "DURATION", "TOKENS", "TOK/S")
	for _, m := range report.Measurements {
		if !m.OK() {
			fmt.Fprintf(w, "%-4d %-9s ", m.Iteration, m.Mode)
			color.New(color.FgRed).Fprintf(w, "failed: %s\n", m.Err)
			continue
		}
		fmt.Fprintf(w, "%-4d %-9s %10s %8d %10.1f\n",
			m.Iteration, m.Mode, m.Duration.Round(time.Millisecond), m.OutputTokens, m.TokensPerSecond)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("Tokens per second"))
	fmt.Fprintf(w, "%-9s %5s %6s %8s %8s %8s\n", "MODE", "COUNT", "FAILED", "MEAN", "MIN", "MAX")
	for _, s := range report.Summaries {
		fmt.Fprintf(w, "%-9s %5d %6d %8.1f %8.1f %8.1f\n", s.Mode, s.Count, s.Failed, s.Mean, s.Min, s.Max)
	}
	return nil
}

func writeJobList(w io.Writer, jobs []state.Job, format outputFormat) error {
	if format != formatText {
		return writeStructured(w, jobs, format)
	}
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs recorded yet. Run 'sot ask <question>' to start.")
		return nil
	}

	for _, j := range jobs {
		fmt.Fprintf(w, "%s  %s  %-8s  %-11s %3d pts  %s\n",
			shortID(j.ID),
			j.StartedAt.Local().Format("2006-01-02 15:04"),
			j.Mode,
			statusColor(j.Status).Sprint(j.Status),
			j.PointCount,
			truncateQuery(j.Query, 50))
	}
	return nil
}

func writeJob(w io.Writer, j *state.Job, format outputFormat) error {
	if format != formatText {
		return writeStructured(w, j, format)
	}

	fmt.Fprintln(w, headingStyle.Render(j.Query))
	fmt.Fprintf(w, "Job:      %s\n", j.ID)
	fmt.Fprintf(w, "Mode:     %s\n", j.Mode)
	fmt.Fprintf(w, "Status:   %s\n", statusColor(j.Status).Sprint(j.Status))
	fmt.Fprintf(w, "Started:  %s\n", j.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Duration: %s\n", j.Duration)
	fmt.Fprintf(w, "Tokens:   %d\n", j.OutputTokens)
	if j.Error != "" {
		fmt.Fprintf(w, "Error:    %s\n", j.Error)
	}
	if len(j.Sections) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	if j.Mode == models.ModeNormal {
		fmt.Fprintln(w, j.Sections[0].Body)
		return nil
	}
	answer := models.FinalAnswer{Sections: j.Sections, Partial: j.Partial}
	fmt.Fprintln(w, answer.Text())
	return nil
}

func statusColor(s state.JobStatus) *color.Color {
	switch s {
	case state.JobCompleted:
		return color.New(color.FgGreen)
	case state.JobPartial, state.JobInterrupted:
		return color.New(color.FgYellow)
	case state.JobFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateQuery(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
