package helpers

import (
	"sort"

	"github.com/doeshing/shai-copilot/internal/domain"
)

// CommandStatistic represents usage statistics for a command
type CommandStatistic struct {
	Command string
	Count   int
}

// HistoryStatistics summarizes a history snapshot.
type HistoryStatistics struct {
	Total         int
	ByStatus      map[domain.ExecutionStatus]int
	ByAction      map[domain.CopilotAction]int
	WithSelection int
	TopCommands   []CommandStatistic
	Tokens        domain.TokenSummary
	SuccessRate   float64
	AverageTokens float64
}

// AnalyzeHistory computes statistics over the visible entries.
func AnalyzeHistory(snapshot domain.HistorySnapshot, topN int) HistoryStatistics {
	stats := HistoryStatistics{
		Total:    len(snapshot.Entries),
		ByStatus: make(map[domain.ExecutionStatus]int),
		ByAction: make(map[domain.CopilotAction]int),
		Tokens:   snapshot.TokenSummary,
	}
	frequency := make(map[string]int)
	for _, entry := range snapshot.Entries {
		stats.ByStatus[entry.Status]++
		stats.ByAction[entry.Action]++
		if entry.UsedSelectionContext {
			stats.WithSelection++
		}
		frequency[entry.Command]++
	}
	stats.TopCommands = CalculateTopCommands(frequency, topN)
	stats.SuccessRate = CalculateSuccessRate(stats.ByStatus[domain.StatusSuccess], stats.Total)
	if stats.Tokens.EntriesWithUsage > 0 {
		stats.AverageTokens = float64(stats.Tokens.TotalTokens) / float64(stats.Tokens.EntriesWithUsage)
	}
	return stats
}

// CalculateTopCommands returns the top N most frequently used commands
// If limit is 0 or negative, returns all commands
func CalculateTopCommands(commandFrequency map[string]int, limit int) []CommandStatistic {
	stats := make([]CommandStatistic, 0, len(commandFrequency))
	for cmd, count := range commandFrequency {
		stats = append(stats, CommandStatistic{Command: cmd, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count == stats[j].Count {
			return stats[i].Command < stats[j].Command
		}
		return stats[i].Count > stats[j].Count
	})
	if limit > 0 && len(stats) > limit {
		return stats[:limit]
	}
	return stats
}

// CalculateSuccessRate calculates the success rate as a percentage
func CalculateSuccessRate(successfulCount int, totalCount int) float64 {
	if totalCount == 0 {
		return 0.0
	}
	return float64(successfulCount) / float64(totalCount) * 100.0
}
