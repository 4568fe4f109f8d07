package budget

import (
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/noah-isme/gema-batch-grader/internal/models"
)

// ErrBudgetTooSmall is returned when the configured budget cannot even cover the
// reservation for rubric text and instructions, leaving no room for submission content.
var ErrBudgetTooSmall = errors.New("token budget leaves no room for submission content")

// Config carries the tunables for file prioritization and token budgeting.
type Config struct {
	// ContextWindow is the assessor model's full context size in tokens.
	ContextWindow int
	// InputFraction is the share of the context window reserved for submission text.
	// The remainder covers rubric text, instructions and the assessor's own output.
	InputFraction float64
	// PriorityTable maps lowercase file extensions to relevance tiers, higher = more
	// relevant. Extensions missing from the table fall back to DefaultPriority.
	PriorityTable map[string]int
	// DefaultPriority is the tier assigned to unknown extensions.
	DefaultPriority int
}

// TokenBudget returns the absolute token budget for submission content.
func (c Config) TokenBudget() int {
	return int(float64(c.ContextWindow) * c.InputFraction)
}

// Validate reports the degenerate configuration where no content can ever be included.
func (c Config) Validate() error {
	if c.TokenBudget() <= 0 {
		return ErrBudgetTooSmall
	}
	return nil
}

// DefaultConfig returns the budgeting defaults used for typical course archives.
func DefaultConfig() Config {
	return Config{
		ContextWindow:   128000,
		InputFraction:   0.65,
		PriorityTable:   DefaultPriorityTable(),
		DefaultPriority: 10,
	}
}

// DefaultPriorityTable ranks primary source code highest, prose mid, data lowest.
func DefaultPriorityTable() map[string]int {
	return map[string]int{
		".go":    100,
		".py":    100,
		".java":  100,
		".c":     100,
		".cpp":   100,
		".h":     100,
		".js":    100,
		".ts":    100,
		".rs":    100,
		".rb":    100,
		".php":   100,
		".cs":    100,
		".kt":    100,
		".swift": 100,
		".html":  80,
		".css":   80,
		".sql":   80,
		".sh":    80,
		".md":    50,
		".txt":   50,
		".rst":   50,
		".tex":   50,
		".json":  20,
		".yaml":  20,
		".yml":   20,
		".xml":   20,
		".csv":   20,
		".tsv":   20,
		".log":   20,
	}
}

// EstimateTokens approximates the token cost of content as ceil(bytes / 4). This is a
// fixed deterministic heuristic, not exact tokenization.
func EstimateTokens(content []byte) int {
	return (len(content) + 3) / 4
}

// Plan ranks a student's files by relevance and greedily selects them under the token
// budget. The first file that would exceed the budget, and every file ranked after it,
// is omitted even if a later file would individually fit; this keeps selection simple
// and deterministic. Plan never fails: a unit with nothing included is surfaced
// downstream at grading time.
func Plan(files models.StudentFiles, cfg Config) models.StudentSubmissionUnit {
	ranked := make([]models.SubmissionFile, 0, len(files.Files))
	for _, file := range files.Files {
		ext := strings.ToLower(path.Ext(file.RelativePath))
		priority, ok := cfg.PriorityTable[ext]
		if !ok {
			priority = cfg.DefaultPriority
		}
		ranked = append(ranked, models.SubmissionFile{
			RelativePath:  file.RelativePath,
			Content:       file.Content,
			Priority:      priority,
			TokenEstimate: EstimateTokens(file.Content),
		})
	}

	// Stable sort keeps archive order among files of equal priority.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Priority > ranked[j].Priority
	})

	unit := models.StudentSubmissionUnit{StudentID: files.StudentID}
	tokenBudget := cfg.TokenBudget()
	exceeded := false

	for _, file := range ranked {
		if !exceeded && unit.TotalEstimatedTokens+file.TokenEstimate <= tokenBudget {
			unit.IncludedFiles = append(unit.IncludedFiles, file)
			unit.TotalEstimatedTokens += file.TokenEstimate
			continue
		}
		exceeded = true
		unit.OmittedFiles = append(unit.OmittedFiles, file.RelativePath)
	}

	return unit
}
