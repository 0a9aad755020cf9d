package search

import (
	"strings"
)

// field weights: a hit in a descriptive field ranks above a hit in the id.
var weights = map[string]float64{
	"id":       1,
	"composer": 2,
	"title":    2,
	"release":  1,
	"split":    1,
	"file":     1,
}

// KeywordSearch searches entries by case-insensitive keyword matching over
// id, composer, title, release, split and file keys. All query tokens must
// match (AND semantics). A token of the form "field:value" only matches that
// field, e.g. "split:train composer:bach".
func KeywordSearch(docs []EntryDoc, query string, limit int) []SearchResult {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return []SearchResult{}
	}

	var out []SearchResult
	for _, d := range docs {
		fields := map[string]string{
			"id":       strings.ToLower(d.ID),
			"composer": strings.ToLower(d.Composer),
			"title":    strings.ToLower(d.Title),
			"release":  strings.ToLower(d.Release),
			"split":    strings.ToLower(d.Split),
			"file":     strings.ToLower(d.FileKeys),
		}
		score, ok := 0.0, true
		var why []string
		for _, tok := range tokens {
			s, hit := matchToken(fields, tok)
			if s == 0 {
				ok = false
				break
			}
			score += s
			why = append(why, hit)
		}
		if !ok {
			continue
		}
		out = append(out, SearchResult{Entry: d, Score: score, Why: strings.Join(why, ",")})
	}

	SortResults(out)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// matchToken returns the best weight tok earns in fields and the field that
// earned it, or zero.
func matchToken(fields map[string]string, tok string) (float64, string) {
	if name, value, ok := strings.Cut(tok, ":"); ok && value != "" {
		if _, known := weights[name]; known {
			if strings.Contains(fields[name], value) {
				return weights[name], name
			}
			return 0, ""
		}
	}
	best, hit := 0.0, ""
	for _, name := range []string{"id", "composer", "title", "release", "split", "file"} {
		if weights[name] > best && strings.Contains(fields[name], tok) {
			best, hit = weights[name], name
		}
	}
	return best, hit
}

func tokenize(q string) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
