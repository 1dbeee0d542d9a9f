package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/notehub/internal/models"
)

const (
	fieldTitle = iota
	fieldContent
	fieldTag
	fieldCount
)

// noteForm is the modal create form. The draft survives a failed submit.
type noteForm struct {
	title      textinput.Model
	content    textinput.Model
	tag        int
	focus      int
	err        string
	submitting bool
}

func newNoteForm() *noteForm {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = models.TitleMaxLen
	title.Focus()

	content := textinput.New()
	content.Placeholder = "Content (optional)"
	content.CharLimit = models.ContentMaxLen

	return &noteForm{title: title, content: content}
}

func (f *noteForm) draft() models.NoteDraft {
	return models.NoteDraft{
		Title:   f.title.Value(),
		Content: f.content.Value(),
		Tag:     models.Tags()[f.tag],
	}
}

func (f *noteForm) setFocus(i int) {
	f.focus = (i + fieldCount) % fieldCount
	f.title.Blur()
	f.content.Blur()
	switch f.focus {
	case fieldTitle:
		f.title.Focus()
	case fieldContent:
		f.content.Focus()
	}
}

func (f *noteForm) cycleTag(delta int) {
	n := len(models.Tags())
	f.tag = (f.tag + delta + n) % n
}

// update routes a key to the focused field.
func (f *noteForm) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return nil
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldContent:
		f.content, cmd = f.content.Update(msg)
	case fieldTag:
		switch msg.String() {
		case "left", "h":
			f.cycleTag(-1)
		case "right", "l", " ":
			f.cycleTag(1)
		}
	}
	return cmd
}

func (f *noteForm) view() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("New note"))
	b.WriteString("\n\n")
	b.WriteString(f.title.View())
	b.WriteString("\n")
	b.WriteString(f.content.View())
	b.WriteString("\n")

	var tags []string
	for i, t := range models.Tags() {
		if i == f.tag {
			tags = append(tags, selectedStyle.Render("["+string(t)+"]"))
		} else {
			tags = append(tags, dimStyle.Render(string(t)))
		}
	}
	prefix := "  "
	if f.focus == fieldTag {
		prefix = "> "
	}
	b.WriteString(prefix + "Tag: " + strings.Join(tags, " "))
	b.WriteString("\n")

	if f.err != "" {
		b.WriteString("\n" + errorStyle.Render(f.err) + "\n")
	}
	if f.submitting {
		b.WriteString("\n" + dimStyle.Render("Creating...") + "\n")
	} else {
		b.WriteString("\n" + dimStyle.Render("tab next field · ←/→ tag · enter create · esc cancel"))
	}
	return formBox.Render(b.String())
}
