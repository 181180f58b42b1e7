// Package scrape turns semi-structured CLI and HTML output into records.
//
// Device CLIs render tabular reports with a separator line before the data
// rows and free-form summary text after them. Records scans for that marker
// and then consumes rows until the first line that no longer looks like data.
package scrape

import (
	"regexp"
	"strings"
)

// Record is one extracted row: named capture group -> field value.
// Every named group of the record pattern is present as a key; groups that
// did not participate in the match map to the empty string.
type Record map[string]string

// Records scans text line by line. Lines before the first line matching
// marker are preamble and are discarded. After the marker, each line is
// matched against record; named capture groups become one Record. The first
// non-matching line after the marker ends the scan — tabular device output
// always trails off into blank or summary lines that must not be misparsed
// as data. A text without a marker line yields an empty result, not an
// error: no clients and no entries are valid states.
func Records(text string, marker, record *regexp.Regexp) []Record {
	results := []Record{}

	inSection := false
	for _, line := range strings.Split(text, "\n") {
		if !inSection {
			if marker.MatchString(line) {
				inSection = true
			}
			continue
		}

		m := record.FindStringSubmatch(line)
		if m == nil {
			break
		}
		results = append(results, recordFromMatch(record, m))
	}

	return results
}

// Fields applies one independent pattern per target field to the entire
// text and collects whichever groups match. Fields whose pattern does not
// match are present with an empty value. This tolerates field reordering
// and fields that come and go across firmware versions.
func Fields(text string, patterns map[string]*regexp.Regexp) Record {
	result := Record{}
	for name, re := range patterns {
		value := ""
		if m := re.FindStringSubmatch(text); m != nil {
			if i := re.SubexpIndex(name); i >= 0 && i < len(m) {
				value = m[i]
			}
		}
		result[name] = cleanValue(value)
	}
	return result
}

func recordFromMatch(re *regexp.Regexp, match []string) Record {
	rec := Record{}
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		value := ""
		if i < len(match) {
			value = match[i]
		}
		rec[name] = cleanValue(value)
	}
	return rec
}

// cleanValue trims surrounding whitespace and strips a single pair of
// enclosing quote characters.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return s
}
