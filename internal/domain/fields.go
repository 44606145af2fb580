package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/yungbote/studybits-backend/internal/data/docstore"
)

// Field readers tolerate the shapes different backends produce: Firestore yields
// int64 and []interface{}, JSON-backed stores yield float64.

func stringField(rec docstore.Record, key string) string {
	return asString(rec[key])
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return ""
	}
}

func stringList(rec docstore.Record, key string) []string {
	switch t := rec[key].(type) {
	case []string:
		out := make([]string, 0, len(t))
		for _, s := range t {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, v := range t {
			if s := asString(v); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		// A lone string is treated as a one-element list.
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return []string{}
}

func intField(rec docstore.Record, key string) int {
	switch t := rec[key].(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0
		}
		return int(t)
	case float32:
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func hintList(v any) []Hint {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Hint, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, hintFromMap(m))
	}
	return out
}

func hintFromMap(m map[string]any) Hint {
	return Hint{
		Key:     asString(m["key"]),
		Title:   asString(m["title"]),
		Content: asString(m["content"]),
		Image:   asString(m["image"]),
	}
}

func answerList(v any) []Answer {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Answer, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		a := Answer{
			ID:      asString(m["id"]),
			Text:    asString(m["text"]),
			Correct: boolField(m, "correct"),
		}
		if hm, ok := m["hint"].(map[string]any); ok {
			h := hintFromMap(hm)
			a.Hint = &h
		}
		out = append(out, a)
	}
	return out
}

func hintRecord(h Hint) map[string]any {
	m := map[string]any{}
	if h.Key != "" {
		m["key"] = h.Key
	}
	if h.Title != "" {
		m["title"] = h.Title
	}
	if h.Content != "" {
		m["content"] = h.Content
	}
	if h.Image != "" {
		m["image"] = h.Image
	}
	return m
}

func toAnySlice(in []string) []any {
	out := make([]any, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}

func setIf(rec docstore.Record, key, val string) {
	if val != "" {
		rec[key] = val
	}
}
