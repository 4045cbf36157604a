package source

import (
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

func init() { register(dragonforceAdapter{}) }

// dragonforceAdapter parses date-prefixed blocks whose second line is a
// tab-separated company/description pair. Short descriptions are padded
// from the following lines; "Updated:" and screenshot markers are dropped.
// No real domain exists in this format, so the identity is a slug of the
// company name.
type dragonforceAdapter struct{}

// A line starting with an ISO date opens a new entry.
var dragonforceDateLine = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

func (dragonforceAdapter) Name() string { return "dragonforce" }

func (dragonforceAdapter) Parse(r io.Reader) ([]leak.RawRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var records []leak.RawRecord
	var block []string
	flush := func() {
		if rec, ok := dragonforceRecord(block); ok {
			records = append(records, rec)
		}
		block = block[:0]
	}
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if dragonforceDateLine.MatchString(strings.TrimSpace(line)) && len(block) > 0 {
			flush()
		}
		block = append(block, line)
	}
	flush()
	return records, nil
}

func dragonforceRecord(block []string) (leak.RawRecord, bool) {
	for len(block) > 0 && strings.TrimSpace(block[0]) == "" {
		block = block[1:]
	}
	if len(block) < 2 {
		return leak.RawRecord{}, false
	}
	date := strings.TrimSpace(block[0])

	var parts []string
	for _, p := range strings.Split(block[1], "\t") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return leak.RawRecord{}, false
	}
	company := parts[0]
	description := ""
	if len(parts) > 1 {
		description = parts[1]
	}

	// Ragged entries bury the description in the following lines.
	if len(description) < 20 {
		var extra []string
		for _, line := range block[2:] {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "Updated:") || strings.HasPrefix(line, "Screen") {
				continue
			}
			extra = append(extra, line)
		}
		if len(extra) > 0 {
			if description != "" {
				description += " "
			}
			description += strings.Join(extra, " ")
		}
	}

	postedAt, _ := time.Parse("2006-01-02", date)

	return leak.RawRecord{
		Identity:    Slugify(company),
		TLD:         "com", // pseudo-domain; carries no geographic signal
		Description: description,
		FreeText:    "Company: " + company + "\nDescription: " + description,
		Status:      "published",
		PostedAt:    postedAt,
	}, true
}
