// Package search provides full-text search over a document's comments.
package search

import (
	"strconv"
	"strings"
)

const defaultLimit = 10

// Query is the structured form of a raw search request. It decouples the
// wire payload from the index engine's requirements.
type Query struct {
	RawInput string // the original query string
	Terms    string // text to match against comment bodies
	FieldID  string // optional field filter
	Limit    int    // max results
}

// Parse extracts command-line style arguments from a raw query string.
// Example: invoice overdue --field company_name --limit 20
func Parse(input string) Query {
	query := Query{RawInput: input, Limit: defaultLimit}

	parts := strings.Fields(input)
	var terms []string
	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			val := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "field":
				query.FieldID = val
			case "limit":
				if n, err := strconv.Atoi(val); err == nil && n > 0 {
					query.Limit = n
				}
			}
			i++
			continue
		}
		terms = append(terms, part)
	}

	query.Terms = strings.Join(terms, " ")
	return query
}
