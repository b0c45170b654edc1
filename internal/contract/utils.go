package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/codemonitor/schema"
)

// Color variables for console output.
var (
	FailedColor  = color.New(color.FgRed, color.Bold) // FailedColor marks failed tasks and errored repositories.
	RunningColor = color.New(color.FgYellow)          // RunningColor marks work in progress.
	DoneColor    = color.New(color.FgGreen)           // DoneColor marks completed tasks and idle repositories.
	PendingColor = color.New(color.FgCyan)            // PendingColor marks queued work.
)

// GetTaskLabel returns a colored task status for console output (table).
func GetTaskLabel(status schema.TaskStatus) string {
	text := string(status)
	switch status {
	case schema.TaskFailed:
		return FailedColor.Sprint(text)
	case schema.TaskRunning:
		return RunningColor.Sprint(text)
	case schema.TaskCompleted:
		return DoneColor.Sprint(text)
	default:
		return PendingColor.Sprint(text)
	}
}

// GetRepoLabel returns a colored repository status for console output (table).
func GetRepoLabel(status schema.RepoStatus) string {
	text := string(status)
	switch status {
	case schema.RepoError:
		return FailedColor.Sprint(text)
	case schema.RepoBackfilling:
		return RunningColor.Sprint(text)
	default:
		return DoneColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the SQLite DB file for history storage.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".codemonitor.db"
	}
	return filepath.Join(homeDir, ".codemonitor.db")
}

// TruncatePath shortens a path from the left so that it fits maxWidth runes.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
