package logger

import (
	"strings"
	"testing"
)

func TestRedactionKVs(t *testing.T) {
	r := redaction{enabled: true}
	out := r.kvs([]interface{}{
		"uid", "learner-1",
		"openai_api_key", "sk-abc",
		"course_id", "c1",
		"state", map[string]interface{}{"user_id": "learner-1", "postgres_dsn": "host=db"},
		"dangling",
	})
	if len(out) != 9 {
		t.Fatalf("unexpected length: got=%d want=9", len(out))
	}
	if s, _ := out[1].(string); !strings.HasPrefix(s, "hash:") {
		t.Fatalf("uid not hashed: %v", out[1])
	}
	if out[3] != "[REDACTED]" {
		t.Fatalf("api key not redacted: %v", out[3])
	}
	if out[5] != "c1" {
		t.Fatalf("course_id should pass through: %v", out[5])
	}
	nested, _ := out[7].(map[string]interface{})
	if nested["postgres_dsn"] != "[REDACTED]" || !strings.HasPrefix(nested["user_id"].(string), "hash:") {
		t.Fatalf("nested map not sanitized: %v", nested)
	}
	if out[8] != "dangling" {
		t.Fatalf("odd trailing key should be kept: %v", out[8])
	}
}

func TestRedactionDisabled(t *testing.T) {
	kv := []interface{}{"uid", "learner-1"}
	if out := (redaction{}).kvs(kv); out[1] != "learner-1" {
		t.Fatalf("disabled redaction changed value: %v", out)
	}
}

func TestHashStableAndSalted(t *testing.T) {
	plain := redaction{enabled: true}
	salted := redaction{enabled: true, salt: "pepper"}
	if plain.hash("learner-1") != plain.hash("learner-1") {
		t.Fatalf("hash not stable")
	}
	if plain.hash("learner-1") == salted.hash("learner-1") {
		t.Fatalf("salt ignored")
	}
	if plain.hash("") != "" {
		t.Fatalf("empty input should hash to empty")
	}
}

func TestNewModes(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	for _, mode := range []string{"production", "test", "development"} {
		log, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		log.With("module", "test").Debug("hello", "uid", "u1")
	}
}
