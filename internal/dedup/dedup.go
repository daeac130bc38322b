// Package dedup splits records into first occurrences and exact repeats.
package dedup

import (
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/twiindan/facturai/internal/domain"
)

// Scope selects which fields take part in the fingerprint.
type Scope int

const (
	// ScopeRecord compares every field including source_filename, so the
	// same invoice read from two files is not a duplicate.
	ScopeRecord Scope = iota
	// ScopeContent ignores source_filename.
	ScopeContent
)

// ScopeFor maps the include_source_filename setting to a Scope.
func ScopeFor(includeSourceFilename bool) Scope {
	if includeSourceFilename {
		return ScopeRecord
	}
	return ScopeContent
}

func (s Scope) String() string {
	if s == ScopeContent {
		return "content"
	}
	return "record"
}

const nullToken = "\x00null"

// Fingerprint returns a canonical, order-independent rendering of rec. Each
// value carries a type tag so the string "1" and the number 1 differ, and
// null differs from the empty string.
func Fingerprint(rec *domain.InvoiceRecord, scope Scope) string {
	fields := rec.Fields()
	if scope == ScopeContent {
		delete(fields, domain.FieldSourceFilename)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		switch v := fields[name].(type) {
		case nil:
			b.WriteString(nullToken)
		case string:
			b.WriteString("s:")
			b.WriteString(strconv.Quote(v))
		case float64:
			b.WriteString("n:")
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

// Partition returns the first occurrence of every distinct fingerprint and
// every later repeat, both in input order. len(unique)+len(duplicates)
// always equals len(records).
func Partition(records []domain.InvoiceRecord, scope Scope) (unique, duplicates []domain.InvoiceRecord) {
	buckets := make(map[uint64][]string, len(records))
	unique = make([]domain.InvoiceRecord, 0, len(records))
	duplicates = []domain.InvoiceRecord{}
	for i := range records {
		fp := Fingerprint(&records[i], scope)
		h := xxhash.Sum64String(fp)
		if contains(buckets[h], fp) {
			duplicates = append(duplicates, records[i])
			continue
		}
		buckets[h] = append(buckets[h], fp)
		unique = append(unique, records[i])
	}
	return unique, duplicates
}

func contains(bucket []string, fp string) bool {
	for _, existing := range bucket {
		if existing == fp {
			return true
		}
	}
	return false
}
