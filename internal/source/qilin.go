package source

import (
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

func init() { register(qilinAdapter{}) }

// qilinAdapter parses dumps delimited by "Last update ..." lines. Each
// block reads:
//
//	Apr-25-2025 19:44
//	WikileaksV2
//	Company Name, Location
//	READ_
//	description...
//
// The trailing comma segment of the company line is a location label and
// becomes the record's explicit country candidate.
type qilinAdapter struct{}

var (
	qilinEntrySplit   = regexp.MustCompile(`Last update [^\n]+\n`)
	qilinLocationTail = regexp.MustCompile(`,\s*([^,]+)$`)
)

const qilinTimeLayout = "Jan-02-2006 15:04"

func (qilinAdapter) Name() string { return "qilin" }

func (qilinAdapter) Parse(r io.Reader) ([]leak.RawRecord, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var records []leak.RawRecord
	for _, entry := range qilinEntrySplit.Split(string(content), -1) {
		lines := cleanLines(entry)
		if len(lines) < 4 {
			continue
		}

		dateLine := lines[0]
		companyLine := lines[2]
		status := lines[3]

		var desc []string
		for _, line := range lines[4:] {
			if strings.HasPrefix(line, "Last update") {
				continue
			}
			desc = append(desc, line)
		}
		description := "No description available"
		if len(desc) > 0 {
			description = strings.Join(desc, " ")
		}

		location := ""
		company := companyLine
		if m := qilinLocationTail.FindStringSubmatch(companyLine); m != nil {
			location = strings.TrimSpace(m[1])
			company = strings.TrimSpace(qilinLocationTail.ReplaceAllString(companyLine, ""))
		}
		if company == "" {
			continue
		}

		postedAt, _ := time.Parse(qilinTimeLayout, dateLine)

		records = append(records, leak.RawRecord{
			Identity:        Slugify(company),
			ExplicitCountry: location,
			Description:     description,
			FreeText: "Company: " + company + "\nLocation: " + location +
				"\nDescription: " + description,
			Status:   status,
			PostedAt: postedAt,
		})
	}
	return records, nil
}
