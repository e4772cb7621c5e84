// Package ztag parses the tagged output mode of the p4 command-line client
// ("p4 -ztag ..."), in which every field is printed on its own line as
//
//	... key value
//
// Records are delimited by a boundary key chosen per query: a line carrying
// that key always starts a new record. Lines that do not match the tag
// pattern continue the previous field when it may span several lines and are
// dropped otherwise; the format is not stable across server versions, so
// anomalies are tolerated rather than reported.
package ztag

import (
	"iter"
	"regexp"
	"strings"
)

// Marker is the prefix of every tagged line.
const Marker = "..."

var tagLine = regexp.MustCompile(`^\.\.\.\s+(\S+)(?:\s(.*))?$`)

// Record is one parsed record: field name to raw string value.
type Record map[string]string

// ParseOptions selects how a particular query's output is split into records.
type ParseOptions struct {
	// BoundaryKey is the field that starts a new record.
	BoundaryKey string
	// MultiLine names the fields that absorb continuation lines and repeated
	// tags instead of being overwritten.
	MultiLine map[string]bool
}

// Records returns a single-pass sequence over the records in text, in the
// order the server emitted them.
func Records(text string, opts ParseOptions) iter.Seq[Record] {
	return func(yield func(Record) bool) {
		var (
			current Record
			lastKey string
		)

		for line := range strings.Lines(text) {
			line = strings.TrimRight(line, "\r\n")

			m := tagLine.FindStringSubmatch(line)
			if m == nil {
				if current != nil && lastKey != "" && opts.MultiLine[lastKey] {
					current[lastKey] += "\n" + line
				}
				continue
			}

			key, value := m[1], m[2]

			if key == opts.BoundaryKey {
				if current != nil && !yield(current) {
					return
				}
				current = Record{key: value}
				lastKey = key
				continue
			}

			if current == nil {
				continue
			}

			if prev, ok := current[key]; ok && opts.MultiLine[key] {
				current[key] = prev + "\n" + value
			} else {
				current[key] = value
			}
			lastKey = key
		}

		if current != nil {
			yield(current)
		}
	}
}

// ParseRecords collects Records into a slice. It never returns nil.
func ParseRecords(text string, opts ParseOptions) []Record {
	records := []Record{}
	for rec := range Records(text, opts) {
		records = append(records, rec)
	}
	return records
}
