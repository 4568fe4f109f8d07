package models

// ArchiveFile is a single entry extracted from the uploaded archive, with its path
// relative to the student's folder.
type ArchiveFile struct {
	RelativePath string
	Content      []byte
}

// StudentFiles groups the raw extracted files belonging to one student, in archive order.
type StudentFiles struct {
	StudentID string
	Files     []ArchiveFile
}

// SubmissionFile is a file selected for grading, annotated with its priority tier and
// token estimate.
type SubmissionFile struct {
	RelativePath  string
	Content       []byte
	Priority      int
	TokenEstimate int
}

// StudentSubmissionUnit is the immutable, budget-trimmed view of one student's
// submission. Once built it is never patched; downstream stages only read it.
type StudentSubmissionUnit struct {
	StudentID            string
	IncludedFiles        []SubmissionFile
	OmittedFiles         []string
	TotalEstimatedTokens int
}
