package components

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"ragchat/internal/adapter/tui/theme"
	"ragchat/internal/usecase/interaction"
)

// UploadPanelModel shows the file selection line and the upload status line.
type UploadPanelModel struct {
	Labels       []string
	Status       interaction.Status
	InFlight     bool
	SpinnerFrame string
	width        int
}

// SetWidth updates the available width.
func (m *UploadPanelModel) SetWidth(w int) {
	m.width = w
}

// Sync copies the display fields from a controller snapshot.
func (m *UploadPanelModel) Sync(st interaction.State) {
	m.Labels = st.SelectionLabels
	m.Status = st.UploadStatus
	m.InFlight = st.UploadInFlight
}

// Height is the number of lines View occupies.
func (m UploadPanelModel) Height() int {
	if m.Status.Kind == interaction.StatusNone {
		return 1
	}
	return 2
}

// View renders the selection line and, when set, the status line.
func (m UploadPanelModel) View() string {
	var files string
	if len(m.Labels) == 1 && m.Labels[0] == interaction.NoFilesChosen {
		files = theme.NoFiles.Render(interaction.NoFilesChosen)
	} else {
		files = strings.Join(m.Labels, ", ")
	}
	line := theme.FilesLabel.Render("Files:") + " " + files
	if m.width > 0 {
		line = truncate(line, m.width)
	}

	status := StatusLine(m.Status, m.SpinnerFrame)
	if status == "" {
		return line
	}
	return line + "\n" + status
}

// StatusLine renders an upload status with its symbol. spinnerFrame stands
// in for the info symbol while uploading.
func StatusLine(st interaction.Status, spinnerFrame string) string {
	switch st.Kind {
	case interaction.StatusSuccess:
		return theme.TextSuccess.Render(theme.SymbolSuccess + " " + st.Text)
	case interaction.StatusError:
		return theme.TextError.Render(theme.SymbolError + " " + st.Text)
	case interaction.StatusInfo:
		sym := spinnerFrame
		if sym == "" {
			sym = theme.SymbolInfo
		}
		return theme.TextInfo.Render(sym + " " + st.Text)
	default:
		return ""
	}
}

func truncate(s string, width int) string {
	if width < 4 {
		return s
	}
	return ansi.Truncate(s, width, theme.SymbolEllipsis)
}
