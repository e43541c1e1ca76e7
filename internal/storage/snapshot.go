// Package storage persists the collected-activity snapshot and the
// generated document as timestamped files.
package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/raudabaugh/release-notes-assist/internal/domain"
)

const timestampLayout = "20060102_150405"

// Store writes run artifacts under a data directory (activity snapshots)
// and an output directory (generated documents).
type Store struct {
	dataDir   string
	outputDir string
	logger    *log.Logger
}

// NewStore creates a Store. Directories are created lazily on first write.
func NewStore(dataDir, outputDir string, logger *log.Logger) *Store {
	return &Store{
		dataDir:   dataDir,
		outputDir: outputDir,
		logger:    logger,
	}
}

// SaveActivity writes the collected activity as a timestamped JSON
// snapshot and returns the file path.
func (s *Store) SaveActivity(activity domain.CollectedActivity) (string, error) {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	path := filepath.Join(s.dataDir, fmt.Sprintf("github_data_%s.json", time.Now().Format(timestampLayout)))

	raw, err := json.MarshalIndent(activity, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal activity: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to save activity: %w", err)
	}
	s.logger.Printf("saved collected data to %s", path)
	return path, nil
}

// SaveReleaseNotes writes the generated document as a timestamped
// markdown file, appending documentation-update suggestions under their
// own heading when present, and returns the file path.
func (s *Store) SaveReleaseNotes(notes, docUpdates string) (string, error) {
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(s.outputDir, fmt.Sprintf("release_notes_%s.md", time.Now().Format(timestampLayout)))

	content := notes
	if docUpdates != "" {
		content += "\n\n## Documentation Update Suggestions\n\n" + docUpdates
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to save release notes: %w", err)
	}
	s.logger.Printf("saved release notes to %s", path)
	return path, nil
}
