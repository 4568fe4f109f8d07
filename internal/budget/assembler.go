package budget

import (
	"strings"

	"github.com/noah-isme/gema-batch-grader/internal/models"
)

// AssembleText concatenates the unit's included files into the single text blob sent
// to the assessor. Files appear in their selected order, each under a header naming
// its relative path. When files were omitted for budget reasons a truncation notice
// enumerates them so the assessor and a human reviewer know content was cut.
// Deterministic: the same unit always yields the same text.
func AssembleText(unit models.StudentSubmissionUnit) string {
	builder := strings.Builder{}

	for _, file := range unit.IncludedFiles {
		builder.WriteString("## File: ")
		builder.WriteString(file.RelativePath)
		builder.WriteString("\n")
		builder.Write(file.Content)
		builder.WriteString("\n\n")
	}

	if len(unit.OmittedFiles) > 0 {
		builder.WriteString("## Truncation Notice\n")
		builder.WriteString("The following files were omitted because the submission exceeded the size limit:\n")
		for _, name := range unit.OmittedFiles {
			builder.WriteString("- ")
			builder.WriteString(name)
			builder.WriteString("\n")
		}
	}

	return builder.String()
}
