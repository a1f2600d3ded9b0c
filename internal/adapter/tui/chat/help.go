package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `## Commands

| Command | Action |
|---|---|
| ` + "`/files <path>...`" + ` | Choose the files to upload (no paths clears the choice) |
| ` + "`/upload`" + ` | Upload the chosen files |
| ` + "`/help`" + ` | Show this help |
| ` + "`/quit`" + ` | Exit |

## Keys

- **Enter** sends the question
- **Alt+Enter** starts a new line
- **Ctrl+U** uploads the chosen files
- **PgUp/PgDn** scroll the conversation
- **Ctrl+C** quits
`

// renderHelp renders the help text as terminal markdown, falling back to
// the raw markdown when glamour cannot build a renderer.
func renderHelp(width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return helpMarkdown
	}
	out, err := r.Render(helpMarkdown)
	if err != nil {
		return helpMarkdown
	}
	return strings.Trim(out, "\n")
}
