// Package source holds the per-format dump adapters. Each leak site
// publishes postings in its own text layout; an Adapter turns one raw dump
// into the common record shape. Adapters are best-effort by contract: a
// block that cannot be parsed is skipped, never a fatal error.
package source

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/catcraft/Ransomware-Patterns/internal/leak"
)

// Adapter parses one dump format into raw leak records.
type Adapter interface {
	// Name is the registry key, e.g. "lockbit".
	Name() string
	// Parse extracts records from a raw dump. Records always carry a
	// non-empty Identity. Ragged entries are skipped silently.
	Parse(r io.Reader) ([]leak.RawRecord, error)
}

var registry = map[string]Adapter{}

func register(a Adapter) {
	registry[a.Name()] = a
}

// ForName returns the adapter registered under name.
func ForName(name string) (Adapter, error) {
	a, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown source %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return a, nil
}

// Names lists the registered adapter names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

var (
	nonSlug  = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
	tldRe    = regexp.MustCompile(`\.([a-zA-Z]{2,})$`)
	domainRe = regexp.MustCompile(`https?://(?:www\.)?([^/\s]+)`)
)

// Slugify derives a stable pseudo-domain identity from a company name, so
// the store's dedup key is populated even when no real domain exists.
func Slugify(companyName string) string {
	base := strings.ToLower(strings.ReplaceAll(nonSlug.ReplaceAllString(companyName, ""), " ", ""))
	if base == "" {
		base = "unknown"
	}
	return base + ".com"
}

// ExtractTLD returns the lowercase suffix of a domain-like string, or "".
func ExtractTLD(domain string) string {
	m := tldRe.FindStringSubmatch(strings.TrimSpace(domain))
	if m == nil {
		return ""
	}
	return strings.ToLower(m[1])
}

// DomainFromURL strips scheme, www prefix and path from a URL.
func DomainFromURL(url string) string {
	if m := domainRe.FindStringSubmatch(url); m != nil {
		return strings.ToLower(m[1])
	}
	u := strings.TrimSpace(url)
	if i := strings.Index(u, "://"); i >= 0 {
		u = u[i+3:]
	}
	if i := strings.IndexByte(u, '/'); i >= 0 {
		u = u[:i]
	}
	return strings.ToLower(u)
}

func cleanLines(block string) []string {
	var lines []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
