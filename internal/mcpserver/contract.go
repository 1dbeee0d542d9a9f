package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/notehub/internal/models"
)

// NoteFormatContract describes the fields LLM consumers must provide when
// creating notes through the create_note tool.
var NoteFormatContract = fmt.Sprintf(`# NoteHub Note Format Contract

Notes are created with the `+"`create_note`"+` tool and listed with `+"`list_notes`"+`.

## Fields

| Field   | Required | Rules                                   |
|---------|----------|-----------------------------------------|
| title   | yes      | %d to %d characters                     |
| content | no       | at most %d characters, plain text       |
| tag     | yes      | one of: %s |

## Rules

1. The server assigns `+"`id`"+` and `+"`createdAt`"+`; never invent them.
2. Listings are sorted newest first; a created note appears on page 1.
3. Deleting requires the exact `+"`id`"+` from a listing. Deleting an unknown id fails.
4. Search matches title and content; an empty search lists everything.
`, models.TitleMinLen, models.TitleMaxLen, models.ContentMaxLen, strings.Join(tagNames(), ", "))
