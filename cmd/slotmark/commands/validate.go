package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/slotmark/slotmark"
)

type fileValidationError struct {
	path   string
	issues []string
}

// ValidateCommand implements the validate command. It parses every content
// file and reports recoverable problems: malformed headers and discarded
// blocks.
func ValidateCommand(args []string) error {
	dir := "."
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		dir = args[0]
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", dir)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	fmt.Printf("🔍 Validating content files in: %s\n\n", absDir)

	var totalFiles int
	var fileErrors []fileValidationError

	err = filepath.WalkDir(absDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
				if path != absDir {
					return filepath.SkipDir
				}
			}
			switch name {
			case "node_modules", "vendor", "public", "dist":
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}

		totalFiles++
		if issues := validateFile(path); len(issues) > 0 {
			rel, relErr := filepath.Rel(absDir, path)
			if relErr != nil {
				rel = path
			}
			fileErrors = append(fileErrors, fileValidationError{path: rel, issues: issues})
		}
		return nil
	})
	if err != nil {
		return err
	}

	if totalFiles == 0 {
		fmt.Println("No content files found.")
		return nil
	}

	for _, fe := range fileErrors {
		fmt.Printf("❌ %s\n", fe.path)
		for _, issue := range fe.issues {
			fmt.Printf("   - %s\n", issue)
		}
	}

	valid := totalFiles - len(fileErrors)
	fmt.Printf("\n%d files checked, %d valid, %d with issues\n", totalFiles, valid, len(fileErrors))
	if len(fileErrors) > 0 {
		return fmt.Errorf("validation found issues in %d files", len(fileErrors))
	}
	fmt.Println("✅ All content files are valid")
	return nil
}

// validateFile parses one file with a logger that records warnings, so the
// report carries the same diagnostics a build would log.
func validateFile(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("unreadable: %v", err)}
	}

	rec := &recordingLogger{}
	_, doc := slotmark.SplitFrontmatter(string(data), rec)
	// ParseBlocks logs the same diagnostics it returns; use the returned
	// ones so each issue is reported once.
	_, blockErrs := slotmark.ParseBlocks(doc.Body, slotmark.NopLogger{})

	issues := rec.warnings
	for _, be := range blockErrs {
		issues = append(issues, be.Error())
	}
	return issues
}

// recordingLogger captures warnings and errors for the validation report.
type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}

func (l *recordingLogger) Warn(msg string, args ...any) {
	l.warnings = append(l.warnings, formatLogLine(msg, args))
}

func (l *recordingLogger) Error(msg string, args ...any) {
	l.warnings = append(l.warnings, formatLogLine(msg, args))
}

func formatLogLine(msg string, args []any) string {
	var sb strings.Builder
	sb.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&sb, " %v=%v", args[i], args[i+1])
	}
	return sb.String()
}
