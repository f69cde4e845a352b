package matchmaking

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"tradehub/internal/common/logger"
)

// NormalizeTerm lowercases and trims a single interest or offering label.
func NormalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeTerms normalizes a list, dropping empty terms and repeated terms while
// keeping first-occurrence order. The result is never nil.
func NormalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		n := NormalizeTerm(t)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// Normalizer turns stored buyer interests into a normalized term list. It never
// fails: anything it cannot read is logged and treated as no interests.
type Normalizer struct {
	logger logger.Logger
}

func NewNormalizer(log logger.Logger) *Normalizer {
	return &Normalizer{logger: log.WithFields(map[string]interface{}{"component": "interest-normalizer"})}
}

// Normalize accepts nil, a JSON-encoded list as string/[]byte/json.RawMessage/
// sql.NullString, or a native []string / []interface{}.
func (n *Normalizer) Normalize(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return []string{}
	case []string:
		return NormalizeTerms(v)
	case []interface{}:
		return NormalizeTerms(stringsOf(v))
	case string:
		return n.decode([]byte(v), 0)
	case []byte:
		return n.decode(v, 0)
	case json.RawMessage:
		return n.decode(v, 0)
	case sql.NullString:
		if !v.Valid {
			return []string{}
		}
		return n.decode([]byte(v.String), 0)
	case *string:
		if v == nil {
			return []string{}
		}
		return n.decode([]byte(*v), 0)
	default:
		n.logger.Warn("unsupported interest value", map[string]interface{}{"type": fmt.Sprintf("%T", raw)})
		return []string{}
	}
}

// decode parses text-encoded interests. A JSON string whose content is itself a
// JSON list is unwrapped once.
func (n *Normalizer) decode(data []byte, depth int) []string {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return []string{}
	}

	var parsed interface{}
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		n.logger.Warn("malformed interest list", map[string]interface{}{
			"error":  err.Error(),
			"sample": truncate(trimmed, 64),
		})
		return []string{}
	}

	switch v := parsed.(type) {
	case []interface{}:
		return NormalizeTerms(stringsOf(v))
	case string:
		if depth == 0 {
			return n.decode([]byte(v), depth+1)
		}
	}

	n.logger.Warn("interest value is not a list", map[string]interface{}{"sample": truncate(trimmed, 64)})
	return []string{}
}

func stringsOf(items []interface{}) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
