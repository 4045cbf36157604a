package source

import (
	"io"
	"regexp"
	"strings"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

func init() { register(ransomhouseAdapter{}) }

// ransomhouseAdapter parses blank-line-separated blocks: a company name,
// usually followed by the victim URL and free-form metadata. When no URL is
// present the identity falls back to a company slug.
type ransomhouseAdapter struct{}

var ransomhouseEntrySplit = regexp.MustCompile(`\n\n+`)

func (ransomhouseAdapter) Name() string { return "ransomhouse" }

func (ransomhouseAdapter) Parse(r io.Reader) ([]leak.RawRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var records []leak.RawRecord
	for _, entry := range ransomhouseEntrySplit.Split(strings.TrimSpace(string(content)), -1) {
		lines := cleanLines(entry)
		if len(lines) < 2 {
			continue
		}
		company := lines[0]

		domain := ""
		var desc []string
		for _, line := range lines[1:] {
			if strings.HasPrefix(line, "http") && domain == "" {
				domain = DomainFromURL(line)
				continue
			}
			if strings.HasPrefix(line, "Updated:") {
				continue
			}
			desc = append(desc, line)
		}
		if domain == "" {
			domain = Slugify(company)
		}

		description := "No description available"
		if len(desc) > 0 {
			description = strings.Join(desc, " ")
		}

		records = append(records, leak.RawRecord{
			Identity:    domain,
			TLD:         ExtractTLD(domain),
			Description: description,
			FreeText: "Company: " + company + "\nDomain: " + domain +
				"\nDescription: " + description,
			Status: "published",
		})
	}
	return records, nil
}
