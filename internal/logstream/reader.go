// Package logstream reads append-only JSONL transcript sources. Sources in
// the wild are frequently truncated mid-line or carry records written by
// newer writers, so parsing is tolerant: a line that fails to decode, or
// decodes to something without a discriminator, is counted and skipped
// rather than failing the stream.
package logstream

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize is the scanner buffer cap. Transcript lines carry inlined
// file contents and can run to several megabytes.
const maxLineSize = 10 * 1024 * 1024

// Record is one decoded line from a transcript source. Fields outside this
// envelope stay in Raw so the normalizer can classify shapes this reader
// does not know about.
type Record struct {
	Type            string          `json:"type"`
	UUID            string          `json:"uuid"`
	Timestamp       string          `json:"timestamp"`
	SessionID       string          `json:"sessionId"`
	Cwd             string          `json:"cwd"`
	IsSidechain     bool            `json:"isSidechain"`
	ParentToolUseID string          `json:"parentToolUseID"`
	CostUSD         float64         `json:"costUSD"`
	Message         json.RawMessage `json:"message"`
	Summary         string          `json:"summary"`

	Raw json.RawMessage `json:"-"`
}

// Source is one restartable JSONL file. SessionID is derived from the
// filename; ProjectDir is the name of the containing project directory.
type Source struct {
	Path       string
	SessionID  string
	ProjectDir string
}

// Status reports what happened while reading a source. Unavailable is a
// reason string ("missing", "permission denied: ...") when the source could
// not be opened; an unavailable source yields zero records, not an error.
type Status struct {
	Path           string `json:"path"`
	Records        int    `json:"records"`
	MalformedLines int    `json:"malformed_lines"`
	Unavailable    string `json:"unavailable,omitempty"`
}

// Each reads the source from the beginning and calls fn for every line
// that decodes to a record with a discriminator. Returning false from fn
// stops the stream early. Each call re-opens the file, so a Source can be
// replayed but never seeks mid-stream.
func (s Source) Each(fn func(Record) bool) Status {
	status := Status{Path: s.Path}

	f, err := os.Open(s.Path)
	if err != nil {
		switch {
		case os.IsNotExist(err):
			status.Unavailable = "missing"
		case os.IsPermission(err):
			status.Unavailable = "permission denied"
		default:
			status.Unavailable = err.Error()
		}
		return status
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			status.MalformedLines++
			continue
		}
		if rec.Type == "" {
			// Decoded but shapeless. Count it with the malformed lines
			// so parser coverage stays auditable.
			status.MalformedLines++
			continue
		}

		rec.Raw = append(json.RawMessage(nil), line...)
		if rec.SessionID == "" {
			rec.SessionID = s.SessionID
		}

		status.Records++
		if !fn(rec) {
			break
		}
	}
	// A torn final line or oversized line surfaces as a scanner error;
	// treat it like any other malformed tail.
	if err := scanner.Err(); err != nil {
		status.MalformedLines++
	}

	return status
}

// DiscoverSources finds all JSONL transcript files under logHome/projects/.
// A missing projects directory yields no sources and no error.
func DiscoverSources(logHome string) ([]Source, error) {
	projectsDir := filepath.Join(logHome, "projects")
	projectDirs, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var sources []Source
	for _, projEntry := range projectDirs {
		if !projEntry.IsDir() {
			continue
		}
		dirPath := filepath.Join(projectsDir, projEntry.Name())

		files, err := os.ReadDir(dirPath)
		if err != nil {
			continue
		}
		for _, f := range files {
			if f.IsDir() || !strings.HasSuffix(f.Name(), ".jsonl") {
				continue
			}
			sources = append(sources, Source{
				Path:       filepath.Join(dirPath, f.Name()),
				SessionID:  strings.TrimSuffix(f.Name(), ".jsonl"),
				ProjectDir: projEntry.Name(),
			})
		}
	}
	return sources, nil
}
