package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
)

// Format is an output file format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormats parses a format selector: "text", "json" or "both".
func ParseFormats(s string) ([]Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return []Format{FormatText, FormatJSON}, nil
	case "text", "txt":
		return []Format{FormatText}, nil
	case "json":
		return []Format{FormatJSON}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json or both)", s)
	}
}

// Writer writes ranked result sets to files in an output directory.
type Writer struct {
	dir string
	log logger.Logger
}

// NewWriter creates a writer rooted at dir, creating it if needed.
func NewWriter(dir string, log logger.Logger) (*Writer, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Writer{dir: dir, log: log}, nil
}

// Write writes the result set in each requested format and returns the paths
// of the files written.
func (w *Writer) Write(rs *models.ResultSet, formats []Format) ([]string, error) {
	stamp := rs.GeneratedAt.Format("20060102_150405")
	base := fmt.Sprintf("followers_%s_%s", rs.Subject, stamp)

	var paths []string
	for _, format := range formats {
		var path string
		var err error
		switch format {
		case FormatText:
			path = filepath.Join(w.dir, base+".txt")
			err = w.writeText(rs, path)
		case FormatJSON:
			path = filepath.Join(w.dir, base+".json")
			err = w.writeJSON(rs, path)
		default:
			err = fmt.Errorf("unknown format %q", format)
		}
		if err != nil {
			return paths, err
		}

		w.log.InfoWithFields("results written", map[string]interface{}{
			"path":   path,
			"format": string(format),
			"count":  rs.Total(),
		})
		paths = append(paths, path)
	}

	return paths, nil
}

// writeText writes the human-readable ranking.
func (w *Writer) writeText(rs *models.ResultSet, path string) error {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Followers of @%s\n", rs.Subject))
	b.WriteString(fmt.Sprintf("Generated: %s\n", rs.GeneratedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Total: %d\n", rs.Total()))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	for i, f := range rs.Followers {
		b.WriteString(fmt.Sprintf("%4d. @%-20s - %s followers\n", i+1, f.Username, formatCount(f.FollowerCount)))

		if f.DisplayName != "" || f.Bio != "" || f.Verified {
			name := f.DisplayName
			if f.Verified {
				name += " ✓"
			}
			if name != "" {
				b.WriteString(fmt.Sprintf("      Name: %s\n", strings.TrimSpace(name)))
			}
			if f.FollowingCount > 0 {
				b.WriteString(fmt.Sprintf("      Following: %s\n", formatCount(f.FollowingCount)))
			}
			if f.Bio != "" {
				b.WriteString(fmt.Sprintf("      Bio: %s\n", oneLine(f.Bio)))
			}
		}
	}

	return os.WriteFile(path, []byte(b.String()), 0644)
}

// jsonEntry is one ranked follower in the JSON report.
type jsonEntry struct {
	Rank int `json:"rank"`
	models.Follower
}

// writeJSON writes the machine-readable ranking.
func (w *Writer) writeJSON(rs *models.ResultSet, path string) error {
	entries := make([]jsonEntry, 0, len(rs.Followers))
	for i, f := range rs.Followers {
		entries = append(entries, jsonEntry{Rank: i + 1, Follower: f})
	}

	doc := struct {
		Subject     string      `json:"subject"`
		GeneratedAt string      `json:"generated_at"`
		Total       int         `json:"total"`
		Followers   []jsonEntry `json:"followers"`
	}{
		Subject:     rs.Subject,
		GeneratedAt: rs.GeneratedAt.Format("2006-01-02T15:04:05Z07:00"),
		Total:       rs.Total(),
		Followers:   entries,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	return os.WriteFile(path, append(data, '\n'), 0644)
}

// formatCount renders a count with thousands separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	return strings.Join(parts, ",")
}

// oneLine flattens a multi-line bio.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
