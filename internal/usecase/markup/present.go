package markup

import (
	"html"
	"strings"
)

// HTML renders blocks as the markup the web client displayed: one
// <div class="section"> per block, paragraphs with <br> between lines,
// emphasis as <strong>. Text is escaped.
func HTML(blocks []Block) string {
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(`<div class="section">`)
		switch b.Kind {
		case BlockList:
			tag := "ul"
			if b.Ordered {
				tag = "ol"
			}
			sb.WriteString("<" + tag + ">")
			for _, item := range b.Items {
				sb.WriteString("<li>")
				writeRunHTML(&sb, item)
				sb.WriteString("</li>")
			}
			sb.WriteString("</" + tag + ">")
		default:
			sb.WriteString("<p>")
			for i, line := range b.Lines {
				if i > 0 {
					sb.WriteString("<br>")
				}
				writeRunHTML(&sb, line)
			}
			sb.WriteString("</p>")
		}
		sb.WriteString("</div>")
	}
	return sb.String()
}

func writeRunHTML(sb *strings.Builder, run InlineRun) {
	for _, s := range run {
		if s.Emphasized {
			sb.WriteString("<strong>" + html.EscapeString(s.Text) + "</strong>")
			continue
		}
		sb.WriteString(html.EscapeString(s.Text))
	}
}

// PlainText renders blocks without any markers: paragraph lines and list
// items one per line, blocks separated by a blank line.
func PlainText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		runs := b.Runs()
		lines := make([]string, len(runs))
		for i, r := range runs {
			lines[i] = r.Text()
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}
