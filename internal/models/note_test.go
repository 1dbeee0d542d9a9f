package models

import (
	"strings"
	"testing"
)

func TestNoteDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   NoteDraft
		wantErr string
	}{
		{"valid", NoteDraft{Title: "Buy milk", Tag: TagShopping}, ""},
		{"title too short", NoteDraft{Title: "ab", Tag: TagTodo}, "title"},
		{"title too long", NoteDraft{Title: strings.Repeat("x", 51), Tag: TagTodo}, "title"},
		{"title required", NoteDraft{Tag: TagTodo}, "title"},
		{"content too long", NoteDraft{Title: "abc", Content: strings.Repeat("y", 501), Tag: TagWork}, "content"},
		{"content at limit", NoteDraft{Title: "abc", Content: strings.Repeat("y", 500), Tag: TagWork}, ""},
		{"unicode title counts runes", NoteDraft{Title: "Нот", Tag: TagPersonal}, ""},
		{"bad tag", NoteDraft{Title: "abc", Tag: Tag("Errand")}, "tag"},
		{"missing tag", NoteDraft{Title: "abc"}, "tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseTag(t *testing.T) {
	tag, err := ParseTag(" meeting ")
	if err != nil || tag != TagMeeting {
		t.Fatalf("ParseTag = %q, %v", tag, err)
	}
	if _, err := ParseTag("groceries"); err == nil {
		t.Error("expected error for unknown tag")
	}
}
