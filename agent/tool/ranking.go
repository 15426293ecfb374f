package tool

import (
	"sort"
	"strings"

	storex "github.com/tanpawarit/agentic-services/agent/store"
)

type ranked[T any] struct {
	item  T
	score int
}

// rank scores items, keeps those accepted by keep (all when keep is nil) and
// sorts by descending score. Equal scores keep store order.
func rank[T any](items []T, score func(T) int, limit int, keep func(int) bool) []ranked[T] {
	out := make([]ranked[T], 0, len(items))
	for _, it := range items {
		s := score(it)
		if keep != nil && !keep(s) {
			continue
		}
		out = append(out, ranked[T]{item: it, score: s})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].score > out[j].score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func positive(score int) bool { return score > 0 }

// words splits a lowered query on whitespace and keeps words longer than min.
func words(query string, min int) []string {
	var out []string
	for _, w := range strings.Fields(query) {
		if len(w) > min {
			out = append(out, w)
		}
	}
	return out
}

func contains(haystack, needle string) bool {
	return needle != "" && strings.Contains(strings.ToLower(haystack), needle)
}

func productScore(query string) func(p storex.Product) int {
	q := strings.ToLower(strings.TrimSpace(query))
	ws := words(q, 2)
	return func(p storex.Product) int {
		score := 0
		if contains(p.Name, q) {
			score += 10
		}
		if contains(p.Category, q) {
			score += 5
		}
		if contains(p.Description, q) {
			score += 3
		}
		for _, w := range ws {
			if contains(p.Name, w) {
				score += 2
			}
			if contains(p.Description, w) {
				score++
			}
		}
		return score
	}
}

func articleScore(query string) func(a storex.KBArticle) int {
	q := strings.ToLower(strings.TrimSpace(query))
	ws := words(q, 2)
	return func(a storex.KBArticle) int {
		score := 0
		if contains(a.Title, q) {
			score += 20
		}
		if contains(a.Description, q) {
			score += 10
		}
		if contains(a.Content, q) {
			score += 5
		}
		for _, w := range ws {
			if contains(a.Title, w) {
				score += 6
			}
			if contains(a.Description, w) {
				score += 3
			}
			if contains(a.Content, w) {
				score++
			}
		}
		return score
	}
}

func pageScore(query string) func(p storex.NavPath) int {
	q := strings.ToLower(strings.TrimSpace(query))
	ws := words(q, 3)
	return func(p storex.NavPath) int {
		score := 0
		if contains(p.Title, q) {
			score += 10
		}
		for _, kw := range p.Keywords {
			kw = strings.ToLower(kw)
			if kw != "" && q != "" && (strings.Contains(q, kw) || strings.Contains(kw, q)) {
				score += 5
			}
		}
		if contains(p.Description, q) {
			score += 3
		}
		for _, w := range ws {
			if contains(p.Content, w) {
				score++
			}
		}
		if p.Module == nil {
			return score
		}
		if mod := strings.ToLower(p.Module.Name); mod != "" && q != "" && (strings.Contains(q, mod) || strings.Contains(mod, q)) {
			score += 2
		}
		return score
	}
}

func relevanceLabel(score int) string {
	switch {
	case score > 10:
		return "high"
	case score > 5:
		return "medium"
	default:
		return "low"
	}
}

// pageMatchesTopic matches a topic against page keywords and titles.
func pageMatchesTopic(topic string) func(p storex.NavPath) bool {
	t := strings.ToLower(strings.TrimSpace(topic))
	return func(p storex.NavPath) bool {
		if t == "" {
			return false
		}
		for _, kw := range p.Keywords {
			kw = strings.ToLower(kw)
			if kw != "" && (strings.Contains(t, kw) || strings.Contains(kw, t)) {
				return true
			}
		}
		return contains(p.Title, t)
	}
}
