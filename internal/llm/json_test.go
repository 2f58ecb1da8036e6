package llm

import (
	"errors"
	"testing"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"multi-line body", "```json\n{\n  \"a\": 1\n}\n```", "{\n  \"a\": 1\n}"},
		{"no fence", `  {"a": 1}  `, `{"a": 1}`},
		{"opening only", "```json\n{\"a\": 1}", "```json\n{\"a\": 1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripCodeFence(tt.in); got != tt.want {
				t.Errorf("StripCodeFence() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Urgency    string  `json:"urgency"`
		Confidence float64 `json:"confidence"`
	}

	if err := DecodeJSON("```json\n{\"urgency\": \"High\", \"confidence\": 0.9}\n```", &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.Urgency != "High" || out.Confidence != 0.9 {
		t.Errorf("Unexpected decode: %+v", out)
	}

	if err := DecodeJSON(`Here you go: {"urgency": "Low", "confidence": 0.2} hope it helps`, &out); err != nil {
		t.Fatalf("DecodeJSON with prose: %v", err)
	}
	if out.Urgency != "Low" {
		t.Errorf("Urgency = %s, want Low", out.Urgency)
	}

	if err := DecodeJSON("I cannot help with that.", &out); err == nil {
		t.Error("Expected error for non-JSON reply")
	}
	if err := DecodeJSON("  ", &out); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}
