package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/doeshing/shai-copilot/internal/domain"
)

// TimestampFormat is used for entry times in listings.
const TimestampFormat = "2006-01-02 15:04:05"

// WriteJSON prints v as indented JSON.
func WriteJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderSnapshot prints a captured selection context.
func RenderSnapshot(out io.Writer, snapshot domain.ContextSnapshot) {
	if !snapshot.AccessibilityTrusted {
		fmt.Fprintln(out, "Accessibility: not trusted (grant access in System Settings > Privacy & Security > Accessibility)")
		return
	}
	fmt.Fprintln(out, "Accessibility: trusted")
	fmt.Fprintf(out, "Editable selection: %t\n", snapshot.HasEditableSelection)
	if !snapshot.HasSelection() {
		fmt.Fprintln(out, "Selection: (none)")
		return
	}
	fmt.Fprintln(out, "Selection:")
	fmt.Fprintln(out, indent(snapshot.Text()))
}

// RenderRunResponse prints the outcome of a copilot run.
func RenderRunResponse(out io.Writer, resp domain.RunResponse) {
	if resp.Entry == nil {
		fmt.Fprintln(out, "Nothing to do.")
		return
	}
	entry := resp.Entry
	fmt.Fprintf(out, "Command: %s (%s)\n", entry.Command, entry.Action)
	fmt.Fprintf(out, "Status: %s\n", strings.ToUpper(string(entry.Status)))
	if entry.Detail != "" {
		fmt.Fprintf(out, "Detail: %s\n", entry.Detail)
	}
	if resp.Output != "" {
		fmt.Fprintln(out, "\nOutput:")
		fmt.Fprintln(out, indent(resp.Output))
	}
	if entry.TokenUsage != nil {
		fmt.Fprintf(out, "\nTokens: %d in / %d out / %d total\n",
			entry.TokenUsage.InputTokens, entry.TokenUsage.OutputTokens, entry.TokenUsage.TotalTokens)
	}
}

// RenderEntries prints one line per history entry.
func RenderEntries(out io.Writer, entries []domain.HistoryEntry) {
	for _, entry := range entries {
		marker := " "
		if entry.UsedSelectionContext {
			marker = "*"
		}
		fmt.Fprintf(out, "%s | %-9s | %-7s |%s %s | %s\n",
			entry.CreatedAt.Local().Format(TimestampFormat),
			entry.Status,
			entry.Action,
			marker,
			entry.Command,
			entry.ID)
	}
}

// RenderEntry prints a single history entry in full.
func RenderEntry(out io.Writer, entry domain.HistoryEntry) {
	fmt.Fprintf(out, "ID: %s\n", entry.ID)
	fmt.Fprintf(out, "Created: %s\n", entry.CreatedAt.Local().Format(TimestampFormat))
	fmt.Fprintf(out, "Command: %s\n", entry.Command)
	fmt.Fprintf(out, "Action: %s\n", entry.Action)
	fmt.Fprintf(out, "Status: %s\n", entry.Status)
	fmt.Fprintf(out, "Used selection: %t\n", entry.UsedSelectionContext)
	if entry.Detail != "" {
		fmt.Fprintf(out, "Detail: %s\n", entry.Detail)
	}
	if entry.TokenUsage != nil {
		fmt.Fprintf(out, "Tokens: %d in / %d out / %d total\n",
			entry.TokenUsage.InputTokens, entry.TokenUsage.OutputTokens, entry.TokenUsage.TotalTokens)
	}
	if entry.ResponseText != nil {
		fmt.Fprintln(out, "Response:")
		fmt.Fprintln(out, indent(*entry.ResponseText))
	}
}

// RenderStatistics prints the output of AnalyzeHistory.
func RenderStatistics(out io.Writer, stats HistoryStatistics, policy domain.RetentionPolicy) {
	fmt.Fprintf(out, "Entries: %d (retention: %s)\n", stats.Total, DescribePolicy(policy))
	fmt.Fprintf(out, "Success rate: %.1f%%\n", stats.SuccessRate)
	for _, status := range []domain.ExecutionStatus{domain.StatusSuccess, domain.StatusError, domain.StatusCancelled} {
		fmt.Fprintf(out, "  %s: %d\n", status, stats.ByStatus[status])
	}
	fmt.Fprintln(out, "Actions:")
	for _, action := range []domain.CopilotAction{domain.ActionReplace, domain.ActionInsert, domain.ActionCopy} {
		fmt.Fprintf(out, "  %s: %d\n", action, stats.ByAction[action])
	}
	fmt.Fprintf(out, "Used selection context: %d\n", stats.WithSelection)
	fmt.Fprintf(out, "Tokens: %d in / %d out / %d total over %d runs (avg %.1f)\n",
		stats.Tokens.InputTokens, stats.Tokens.OutputTokens, stats.Tokens.TotalTokens,
		stats.Tokens.EntriesWithUsage, stats.AverageTokens)
	if len(stats.TopCommands) > 0 {
		fmt.Fprintln(out, "Top commands:")
		for _, stat := range stats.TopCommands {
			fmt.Fprintf(out, "  %s (%d)\n", stat.Command, stat.Count)
		}
	}
}

// RenderReport prints doctor checks.
func RenderReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		fmt.Fprintf(out, "[%s] %s - %s\n",
			strings.ToUpper(string(check.Status)),
			check.Name,
			check.Details)
	}
}

// DescribePolicy renders a retention policy for humans.
func DescribePolicy(policy domain.RetentionPolicy) string {
	days, entries := "unbounded age", "unbounded count"
	if policy.MaxAgeDays != nil {
		days = fmt.Sprintf("%d days", *policy.MaxAgeDays)
	}
	if policy.MaxEntries != nil {
		entries = fmt.Sprintf("%d entries", *policy.MaxEntries)
	}
	return days + ", " + entries
}

func indent(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
