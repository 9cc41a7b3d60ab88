// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"strings"

	"github.com/meshintel/fit-engine/pkg/types"
)

// synonyms drive the third-iteration rewrite. Keys and values are lowercase
// single terms or phrases; phrases are substituted before single terms.
var synonyms = map[string]string{
	"technology stack": "tools and platform",
	"engineering":      "software development",
	"careers":          "jobs",
	"requirements":     "qualifications",
	"reviews":          "employee feedback",
	"culture":          "work environment",
	"hiring":           "recruiting",
	"company":          "employer",
}

// synonymOrder applies phrase keys first so single-word keys cannot clobber
// a phrase they are part of.
var synonymOrder = []string{
	"technology stack",
	"engineering",
	"careers",
	"requirements",
	"reviews",
	"culture",
	"hiring",
	"company",
}

// InitialQueries builds the first iteration's query set from a classified
// query context.
func InitialQueries(q types.QueryContext) []string {
	name := q.CompanyName
	if name == "" {
		name = strings.TrimSpace(q.Raw)
	}
	queries := []string{
		`"` + name + `" engineering technology stack`,
		`"` + name + `" careers requirements culture`,
	}
	if q.JobTitle != "" {
		queries[1] = `"` + name + `" "` + q.JobTitle + `" requirements`
	}
	return queries
}

// Reformulate rewrites the query set for a retry iteration. Iteration 2
// broadens: exact-phrase quotes and restrictive operators are stripped.
// Iteration 3 and later substitute synonym terms on top of the broadened
// form.
func Reformulate(queries []string, iteration int) []string {
	out := make([]string, len(queries))
	for i, query := range queries {
		broadened := broaden(query)
		if iteration >= 3 {
			broadened = synonymize(broadened)
		}
		out[i] = broadened
	}
	return out
}

// broaden removes exact-phrase quoting, operator tokens (site:, intitle:,
// -exclusions), and collapses whitespace.
func broaden(query string) string {
	query = strings.ReplaceAll(query, `"`, "")
	var kept []string
	for _, field := range strings.Fields(query) {
		if strings.Contains(field, ":") {
			continue
		}
		if strings.HasPrefix(field, "-") && len(field) > 1 {
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

func synonymize(query string) string {
	lower := strings.ToLower(query)
	for _, key := range synonymOrder {
		if idx := strings.Index(lower, key); idx >= 0 {
			query = query[:idx] + synonyms[key] + query[idx+len(key):]
			lower = strings.ToLower(query)
		}
	}
	return query
}
