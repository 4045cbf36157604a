package source

import (
	"bufio"
	"io"
	"strings"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

func init() { register(clopAdapter{}) }

// clopAdapter parses the simplest format: one victim URL or bare domain per
// line, nothing else. The TLD is the only geographic signal these records
// carry.
type clopAdapter struct{}

func (clopAdapter) Name() string { return "clop" }

func (clopAdapter) Parse(r io.Reader) ([]leak.RawRecord, error) {
	var records []leak.RawRecord
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		domain := DomainFromURL(line)
		if domain == "" {
			continue
		}
		records = append(records, leak.RawRecord{
			Identity:    domain,
			TLD:         ExtractTLD(domain),
			Description: "-",
			FreeText:    "Domain: " + domain,
			Status:      "published",
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
