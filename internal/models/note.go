// Package models defines the domain types for NoteHub.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Tag is the category a note belongs to.
type Tag string

// Supported tags.
const (
	TagTodo     Tag = "Todo"
	TagWork     Tag = "Work"
	TagPersonal Tag = "Personal"
	TagMeeting  Tag = "Meeting"
	TagShopping Tag = "Shopping"
)

// Tags returns every supported tag in display order.
func Tags() []Tag {
	return []Tag{TagTodo, TagWork, TagPersonal, TagMeeting, TagShopping}
}

// ParseTag matches s against the supported tags, ignoring case.
func ParseTag(s string) (Tag, error) {
	for _, t := range Tags() {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tag %q", s)
}

// Note is a note as owned by the remote service.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tag       Tag       `json:"tag"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Draft limits enforced by the create form.
const (
	TitleMinLen   = 3
	TitleMaxLen   = 50
	ContentMaxLen = 500
)

// NoteDraft is the payload submitted when creating a note.
type NoteDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Tag     Tag    `json:"tag"`
}

// Validate applies the create form rules. The API client does not call it.
func (d NoteDraft) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Title, validation.Required, validation.By(runeLen(TitleMinLen, TitleMaxLen))),
		validation.Field(&d.Content, validation.By(runeLen(0, ContentMaxLen))),
		validation.Field(&d.Tag, validation.Required, validation.In(tagValues()...)),
	)
}

func runeLen(min, max int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		n := utf8.RuneCountInString(s)
		if n < min || n > max {
			if min == 0 {
				return fmt.Errorf("must be at most %d characters", max)
			}
			return fmt.Errorf("must be between %d and %d characters", min, max)
		}
		return nil
	}
}

func tagValues() []interface{} {
	tags := Tags()
	out := make([]interface{}, len(tags))
	for i, t := range tags {
		out[i] = t
	}
	return out
}

// ViewState selects which page of notes is displayed.
type ViewState struct {
	Page   int    `json:"page"`
	Search string `json:"search"`
}

// PageResult is one page of a note listing.
type PageResult struct {
	Notes      []Note `json:"notes"`
	Page       int    `json:"page"`
	PerPage    int    `json:"perPage"`
	TotalPages int    `json:"totalPages"`
	TotalItems int    `json:"totalItems"`
}
