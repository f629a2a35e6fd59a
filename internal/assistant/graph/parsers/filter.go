package parsers

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/depato-store/shopper-assistant/internal/assistant/metrics"
	"github.com/depato-store/shopper-assistant/internal/assistant/rag"
	logx "github.com/depato-store/shopper-assistant/pkg/logger"
)

// basic safety limits to avoid pathological model outputs
const (
	maxContentLen = 64 * 1024
	maxFilterKeys = 16
	maxListValues = 32
	maxErrSnippet = 200
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)\\n```")

// ParseFilter extracts a metadata filter from a model response. It prefers a
// fenced ```json block, then falls back to parsing the whole text as JSON.
// It never fails: anything unparseable degrades to the empty filter, which
// matches every document, and bumps the fallback counter.
func ParseFilter(content string) rag.Filter {
	if len(content) > maxContentLen {
		content = content[:maxContentLen]
	}

	candidate := content
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		candidate = m[1]
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(candidate)), &raw); err != nil {
		metrics.FilterParseFallbacks.Inc()
		logx.Warn().
			Str("component", "filter_parser").
			Str("snippet", safeSnippet(content)).
			Msg("filter extraction output not parseable, using empty filter")
		return rag.Filter{}
	}

	f := make(rag.Filter, len(raw))
	for field, v := range raw {
		if len(f) >= maxFilterKeys {
			break
		}
		c, ok := normalizeConstraint(v)
		if !ok {
			continue
		}
		f[field] = c
	}
	return f
}

// normalizeConstraint maps a raw JSON value onto a constraint: scalars become
// equality, arrays become membership, objects with gte/lte bounds become a
// numeric range.
func normalizeConstraint(v any) (rag.Constraint, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return rag.Constraint{}, false
		}
		return rag.Eq(s), true
	case float64:
		return rag.Eq(t), true
	case bool:
		return rag.Eq(t), true
	case []any:
		vals := make([]string, 0, len(t))
		for _, item := range t {
			if len(vals) >= maxListValues {
				break
			}
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				vals = append(vals, strings.TrimSpace(s))
			}
		}
		if len(vals) == 0 {
			return rag.Constraint{}, false
		}
		return rag.In(vals...), true
	case map[string]any:
		var min, max *float64
		if n, ok := rangeBound(t, "gte", "min"); ok {
			min = n
		}
		if n, ok := rangeBound(t, "lte", "max"); ok {
			max = n
		}
		if min == nil && max == nil {
			return rag.Constraint{}, false
		}
		return rag.Between(min, max), true
	default:
		return rag.Constraint{}, false
	}
}

func rangeBound(m map[string]any, keys ...string) (*float64, bool) {
	for _, k := range keys {
		if n, ok := m[k].(float64); ok {
			v := n
			return &v, true
		}
	}
	return nil, false
}

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
