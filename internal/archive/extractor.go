package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/noah-isme/gema-batch-grader/internal/models"
)

var (
	// ErrUnsupportedArchiveType is returned when the upload is not a ZIP file.
	ErrUnsupportedArchiveType = errors.New("archive must be a ZIP file")
	// ErrInvalidArchive signals that the archive could not be read.
	ErrInvalidArchive = errors.New("archive is invalid or corrupted")
	// ErrNoStudentFolders signals that no student submission folders were found.
	ErrNoStudentFolders = errors.New("archive contains no student folders")
)

// studentFolderSeparator splits LMS export folder names of the form
// "<label> - <student name>".
const studentFolderSeparator = " - "

// ExtractOptions tunes which archive entries are discarded before grouping.
type ExtractOptions struct {
	// NoiseDirectories are tooling/metadata directory names skipped at any depth.
	NoiseDirectories map[string]struct{}
	// SkippedExtensions are lowercase file extensions treated as non-gradable.
	SkippedExtensions map[string]struct{}
}

// DefaultExtractOptions returns the denylists used for typical course exports.
func DefaultExtractOptions() ExtractOptions {
	noise := []string{
		"__MACOSX", "__pycache__", ".git", ".svn", ".idea", ".vscode",
		"node_modules", "venv", ".venv", "env", "vendor", "target",
		"dist", "build", "out", "bin", "obj", ".gradle", ".mvn",
	}
	skipped := []string{
		".exe", ".dll", ".so", ".dylib", ".o", ".a", ".class", ".jar",
		".zip", ".rar", ".7z", ".tar", ".gz", ".bz2",
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".ico", ".webp", ".svg",
		".mp3", ".mp4", ".mov", ".avi", ".wav", ".ogg",
		".ttf", ".otf", ".woff", ".woff2", ".eot",
		".pdf", ".doc", ".docx", ".ppt", ".pptx", ".xls", ".xlsx",
		".db", ".sqlite", ".pyc", ".lock",
	}

	opts := ExtractOptions{
		NoiseDirectories:  make(map[string]struct{}, len(noise)),
		SkippedExtensions: make(map[string]struct{}, len(skipped)),
	}
	for _, dir := range noise {
		opts.NoiseDirectories[dir] = struct{}{}
	}
	for _, ext := range skipped {
		opts.SkippedExtensions[ext] = struct{}{}
	}

	return opts
}

// EnsureZip verifies both the file name and the sniffed content type before parsing.
func EnsureZip(filename string, data []byte) error {
	if ext := strings.ToLower(path.Ext(filename)); ext != ".zip" {
		return ErrUnsupportedArchiveType
	}

	mime := mimetype.Detect(data)
	if !mime.Is("application/zip") && !mime.Is("application/x-zip-compressed") {
		return ErrUnsupportedArchiveType
	}

	return nil
}

// Extract parses archive bytes into one ordered file list per student. Students and
// files keep the order in which they first appear in the archive. Entries outside a
// two-level folder structure, noise directories, hidden files and non-gradable
// extensions are discarded before grouping.
func Extract(data []byte, opts ExtractOptions) ([]models.StudentFiles, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrInvalidArchive
	}

	groups := make(map[string]int)
	var students []models.StudentFiles

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		if file.Mode()&os.ModeSymlink != 0 {
			continue
		}

		cleaned := path.Clean(strings.ReplaceAll(file.Name, "\\", "/"))
		if strings.HasPrefix(cleaned, "/") || strings.Contains(cleaned, "..") {
			continue
		}

		segments := strings.Split(cleaned, "/")
		if len(segments) < 2 {
			// Files at the archive root belong to no student.
			continue
		}

		if skipEntry(segments, opts) {
			continue
		}

		studentID := studentIDFromFolder(segments[0])
		if studentID == "" {
			continue
		}

		content, err := readZipFile(file)
		if err != nil {
			return nil, ErrInvalidArchive
		}

		idx, ok := groups[studentID]
		if !ok {
			idx = len(students)
			groups[studentID] = idx
			students = append(students, models.StudentFiles{StudentID: studentID})
		}

		students[idx].Files = append(students[idx].Files, models.ArchiveFile{
			RelativePath: strings.Join(segments[1:], "/"),
			Content:      content,
		})
	}

	if len(students) == 0 {
		return nil, ErrNoStudentFolders
	}

	return students, nil
}

// studentIDFromFolder resolves the student identifier from a top-level folder name.
// Folders exported as "<label> - <student name>" yield the part after the separator;
// bare folder names are used as-is.
func studentIDFromFolder(folder string) string {
	folder = strings.TrimSpace(folder)
	if folder == "" || strings.HasPrefix(folder, ".") {
		return ""
	}

	if _, after, found := strings.Cut(folder, studentFolderSeparator); found {
		return strings.TrimSpace(after)
	}

	return folder
}

func skipEntry(segments []string, opts ExtractOptions) bool {
	if _, noisy := opts.NoiseDirectories[segments[0]]; noisy {
		return true
	}

	for _, segment := range segments[1 : len(segments)-1] {
		if _, noisy := opts.NoiseDirectories[segment]; noisy {
			return true
		}
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}

	base := segments[len(segments)-1]
	if strings.HasPrefix(base, ".") || base == "Thumbs.db" || base == "desktop.ini" {
		return true
	}

	ext := strings.ToLower(path.Ext(base))
	if _, skipped := opts.SkippedExtensions[ext]; skipped {
		return true
	}

	return false
}

func readZipFile(file *zip.File) ([]byte, error) {
	reader, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}
