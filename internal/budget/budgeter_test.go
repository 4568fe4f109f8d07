package budget

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-batch-grader/internal/models"
)

// testConfig yields a token budget of exactly half the context window.
func testConfig(contextWindow int) Config {
	return Config{
		ContextWindow:   contextWindow,
		InputFraction:   0.5,
		PriorityTable:   DefaultPriorityTable(),
		DefaultPriority: 10,
	}
}

func fileOfTokens(name string, tokens int) models.ArchiveFile {
	return models.ArchiveFile{
		RelativePath: name,
		Content:      []byte(strings.Repeat("x", tokens*4)),
	}
}

func TestEstimateTokensRoundsUp(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(nil))
	require.Equal(t, 1, EstimateTokens([]byte("a")))
	require.Equal(t, 1, EstimateTokens([]byte("abcd")))
	require.Equal(t, 2, EstimateTokens([]byte("abcde")))
}

func TestPlanIncludesHigherPriorityFirst(t *testing.T) {
	// 9000-token budget; the 6000-token source file fits, the 4000-token data file
	// would push the total to 10000 and is omitted.
	cfg := testConfig(18000)
	files := models.StudentFiles{
		StudentID: "alice",
		Files: []models.ArchiveFile{
			fileOfTokens("data.csv", 4000),
			fileOfTokens("main.go", 6000),
		},
	}

	unit := Plan(files, cfg)
	require.Len(t, unit.IncludedFiles, 1)
	require.Equal(t, "main.go", unit.IncludedFiles[0].RelativePath)
	require.Equal(t, []string{"data.csv"}, unit.OmittedFiles)
	require.Equal(t, 6000, unit.TotalEstimatedTokens)
}

func TestPlanFirstViolationStopsRemainder(t *testing.T) {
	// The second source file busts the budget; the tiny note would fit on its own
	// but is omitted anyway once inclusion has stopped.
	cfg := testConfig(2000)
	files := models.StudentFiles{
		StudentID: "bob",
		Files: []models.ArchiveFile{
			fileOfTokens("a.go", 900),
			fileOfTokens("b.go", 400),
			fileOfTokens("note.txt", 10),
		},
	}

	unit := Plan(files, cfg)
	require.Len(t, unit.IncludedFiles, 1)
	require.Equal(t, "a.go", unit.IncludedFiles[0].RelativePath)
	require.Equal(t, []string{"b.go", "note.txt"}, unit.OmittedFiles)
}

func TestPlanStableOrderWithinPriorityTier(t *testing.T) {
	cfg := testConfig(20000)
	files := models.StudentFiles{
		StudentID: "carol",
		Files: []models.ArchiveFile{
			fileOfTokens("z.go", 10),
			fileOfTokens("a.go", 10),
			fileOfTokens("m.go", 10),
		},
	}

	unit := Plan(files, cfg)
	require.Len(t, unit.IncludedFiles, 3)
	require.Equal(t, "z.go", unit.IncludedFiles[0].RelativePath)
	require.Equal(t, "a.go", unit.IncludedFiles[1].RelativePath)
	require.Equal(t, "m.go", unit.IncludedFiles[2].RelativePath)
}

func TestPlanPartitionsEveryFileExactlyOnce(t *testing.T) {
	cfg := testConfig(1000)
	files := models.StudentFiles{
		StudentID: "dave",
		Files: []models.ArchiveFile{
			fileOfTokens("a.go", 300),
			fileOfTokens("b.md", 300),
			fileOfTokens("c.csv", 300),
			fileOfTokens("d.bin2", 300),
		},
	}

	unit := Plan(files, cfg)
	seen := make(map[string]int)
	for _, file := range unit.IncludedFiles {
		seen[file.RelativePath]++
	}
	for _, name := range unit.OmittedFiles {
		seen[name]++
	}

	require.Len(t, seen, len(files.Files))
	for name, count := range seen {
		require.Equalf(t, 1, count, "file %s appears %d times", name, count)
	}
}

func TestPlanUnknownExtensionGetsDefaultPriority(t *testing.T) {
	cfg := testConfig(20000)
	files := models.StudentFiles{
		StudentID: "erin",
		Files: []models.ArchiveFile{
			fileOfTokens("mystery.xyz", 10),
			fileOfTokens("main.go", 10),
		},
	}

	unit := Plan(files, cfg)
	require.Equal(t, "main.go", unit.IncludedFiles[0].RelativePath)
	require.Equal(t, cfg.DefaultPriority, unit.IncludedFiles[1].Priority)
}

func TestPlanEmptyBudgetOmitsEverything(t *testing.T) {
	cfg := testConfig(0)
	files := models.StudentFiles{
		StudentID: "frank",
		Files:     []models.ArchiveFile{fileOfTokens("a.go", 5)},
	}

	unit := Plan(files, cfg)
	require.Empty(t, unit.IncludedFiles)
	require.Equal(t, []string{"a.go"}, unit.OmittedFiles)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, testConfig(1000).Validate())
	require.ErrorIs(t, testConfig(0).Validate(), ErrBudgetTooSmall)
}
