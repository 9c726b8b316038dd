package backend

import (
	"sort"
	"strings"
)

// CreatedAtField orders or filters by the backend-assigned creation time.
const CreatedAtField = "$createdAt"

// QueryOp identifies a query primitive.
type QueryOp string

const (
	OpEqual     QueryOp = "equal"
	OpSearch    QueryOp = "search"
	OpOrderDesc QueryOp = "orderDesc"
	OpLimit     QueryOp = "limit"
)

// Query is one filter primitive of a list call.
type Query struct {
	Op    QueryOp
	Field string
	Value string
	Limit int
}

// Equal matches documents whose field equals value.
func Equal(field, value string) Query {
	return Query{Op: OpEqual, Field: field, Value: value}
}

// Search matches documents whose field contains every term of value.
func Search(field, value string) Query {
	return Query{Op: OpSearch, Field: field, Value: value}
}

// OrderDesc sorts results by field, newest or largest first.
func OrderDesc(field string) Query {
	return Query{Op: OpOrderDesc, Field: field}
}

// Limit caps the number of returned documents.
func Limit(n int) Query {
	return Query{Op: OpLimit, Limit: n}
}

// SearchTerms splits a full-text query into lower-cased terms.
func SearchTerms(value string) []string {
	return strings.Fields(strings.ToLower(value))
}

// Matches reports whether doc satisfies every filtering query.
func Matches(doc Document, queries []Query) bool {
	for _, q := range queries {
		switch q.Op {
		case OpEqual:
			if doc.Fields[q.Field] != q.Value {
				return false
			}
		case OpSearch:
			terms := SearchTerms(q.Value)
			if len(terms) == 0 {
				return false
			}
			haystack := strings.ToLower(doc.Fields[q.Field])
			for _, term := range terms {
				if !strings.Contains(haystack, term) {
					return false
				}
			}
		}
	}
	return true
}

// Apply filters, orders and limits docs in memory for stores without native query support.
// The input slice is not modified.
func Apply(docs []Document, queries []Query) []Document {
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if Matches(doc, queries) {
			out = append(out, doc)
		}
	}

	for i := len(queries) - 1; i >= 0; i-- {
		q := queries[i]
		if q.Op != OpOrderDesc {
			continue
		}
		field := q.Field
		sort.SliceStable(out, func(a, b int) bool {
			if field == CreatedAtField {
				return out[a].CreatedAt.After(out[b].CreatedAt)
			}
			return out[a].Fields[field] > out[b].Fields[field]
		})
	}

	for _, q := range queries {
		if q.Op == OpLimit && q.Limit >= 0 && len(out) > q.Limit {
			out = out[:q.Limit]
		}
	}

	return out
}
