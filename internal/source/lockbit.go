package source

import (
	"io"
	"regexp"
	"strings"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

func init() { register(lockbitAdapter{}) }

// lockbitAdapter parses dumps where every entry starts with a bare domain
// line, followed by a status line and a free-form description. Stray
// "Updated:" metadata lines inside the description are dropped.
type lockbitAdapter struct{}

// A line holding nothing but a simple domain starts a new entry.
var lockbitDomainLine = regexp.MustCompile(`^[a-zA-Z0-9-]+\.[a-zA-Z]+$`)

func (lockbitAdapter) Name() string { return "lockbit" }

func (lockbitAdapter) Parse(r io.Reader) ([]leak.RawRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var records []leak.RawRecord
	var block []string
	flush := func() {
		if rec, ok := lockbitRecord(block); ok {
			records = append(records, rec)
		}
		block = block[:0]
	}
	for _, line := range strings.Split(string(content), "\n") {
		if lockbitDomainLine.MatchString(strings.TrimSpace(line)) && len(block) > 0 {
			flush()
		}
		block = append(block, line)
	}
	flush()
	return records, nil
}

func lockbitRecord(block []string) (leak.RawRecord, bool) {
	lines := cleanLines(strings.Join(block, "\n"))
	if len(lines) < 2 {
		return leak.RawRecord{}, false
	}
	domain := lines[0]
	if ExtractTLD(domain) == "" {
		// Not a domain-led block; likely a header fragment.
		return leak.RawRecord{}, false
	}
	status := lines[1]

	var desc []string
	for _, line := range lines[2:] {
		if strings.HasPrefix(line, "Updated:") {
			continue
		}
		desc = append(desc, line)
	}
	description := "No description available"
	if len(desc) > 0 {
		description = strings.Join(desc, " ")
	}

	return leak.RawRecord{
		Identity:    strings.ToLower(domain),
		TLD:         ExtractTLD(domain),
		Description: description,
		FreeText:    "Domain: " + domain + "\nDescription: " + description,
		Status:      status,
	}, true
}
