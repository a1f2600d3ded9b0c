// Package markup turns raw assistant replies into presentational blocks.
//
// The dialect is deliberately small: **bold** emphasis, paragraphs separated
// by blank lines, and flat bulleted or numbered lists. Anything else is
// carried through as literal text.
package markup

import "strings"

// Span is a contiguous piece of text, either plain or emphasized.
type Span struct {
	Text       string
	Emphasized bool
}

// InlineRun is one line of text with emphasis markers resolved.
type InlineRun []Span

// Text returns the run's content with markers stripped.
func (r InlineRun) Text() string {
	var sb strings.Builder
	for _, s := range r {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// BlockKind discriminates the Block variants.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockList
)

// Block is one rendering unit of a reply.
// Paragraphs use Lines (rendered with explicit line breaks between them);
// lists use Items and Ordered.
type Block struct {
	Kind    BlockKind
	Lines   []InlineRun
	Ordered bool
	Items   []InlineRun
}

// Paragraph builds a paragraph block.
func Paragraph(lines ...InlineRun) Block {
	return Block{Kind: BlockParagraph, Lines: lines}
}

// List builds a list block.
func List(ordered bool, items ...InlineRun) Block {
	return Block{Kind: BlockList, Ordered: ordered, Items: items}
}

// Runs returns the block's lines or items, whichever the variant carries.
func (b Block) Runs() []InlineRun {
	if b.Kind == BlockList {
		return b.Items
	}
	return b.Lines
}

// IsEmpty reports whether the block holds no text after trimming.
func (b Block) IsEmpty() bool {
	for _, r := range b.Runs() {
		if strings.TrimSpace(r.Text()) != "" {
			return false
		}
	}
	return true
}

// Render partitions text into blocks. It never fails: input that matches no
// structure comes back as paragraphs of literal text.
func Render(text string) []Block {
	var blocks []Block
	for _, section := range Sections(text) {
		blocks = append(blocks, renderSection(section))
	}
	return blocks
}

// Sections splits text on runs of blank lines (lines holding only
// whitespace) and returns the non-empty trimmed sections in order.
func Sections(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var (
		sections []string
		current  []string
	)
	flush := func() {
		if len(current) == 0 {
			return
		}
		if s := strings.TrimSpace(strings.Join(current, "\n")); s != "" {
			sections = append(sections, s)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return sections
}

func renderSection(section string) Block {
	lines := strings.Split(section, "\n")

	isList := true
	for _, l := range lines {
		if !IsListLine(l) {
			isList = false
			break
		}
	}

	if !isList {
		runs := make([]InlineRun, len(lines))
		for i, l := range lines {
			runs[i] = Emphasize(l)
		}
		return Paragraph(runs...)
	}

	// Only the first line decides ordering; later markers are not consulted.
	ordered := isDigit(strings.TrimSpace(lines[0])[0])
	items := make([]InlineRun, len(lines))
	for i, l := range lines {
		items[i] = Emphasize(stripMarker(strings.TrimSpace(l)))
	}
	return List(ordered, items...)
}

// IsListLine reports whether line, once trimmed, opens with a list marker:
// one or more of '*', '-' or a digit, an optional '.', then a space.
func IsListLine(line string) bool {
	s := strings.TrimSpace(line)
	n := markerLen(s)
	if n == 0 {
		return false
	}
	if n < len(s) && s[n] == '.' {
		n++
	}
	return n < len(s) && s[n] == ' '
}

// stripMarker removes the leading marker, its optional '.', and any
// whitespace that follows.
func stripMarker(s string) string {
	n := markerLen(s)
	if n < len(s) && s[n] == '.' {
		n++
	}
	return strings.TrimLeft(s[n:], " \t")
}

func markerLen(s string) int {
	n := 0
	for n < len(s) && isMarkerByte(s[n]) {
		n++
	}
	return n
}

func isMarkerByte(c byte) bool {
	return c == '*' || c == '-' || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

const emphasisMarker = "**"

// Emphasize resolves **...** pairs in line. Pairs are matched left to right,
// each opening marker closing at the nearest following marker; markers inside
// an emphasized span are not reprocessed. An opening marker with no closing
// partner stays literal, as does everything after it.
func Emphasize(line string) InlineRun {
	var run InlineRun
	plain := func(s string) {
		if s != "" {
			run = append(run, Span{Text: s})
		}
	}

	rest := line
	for {
		open := strings.Index(rest, emphasisMarker)
		if open < 0 {
			break
		}
		body := rest[open+len(emphasisMarker):]
		closing := strings.Index(body, emphasisMarker)
		if closing < 0 {
			break
		}
		plain(rest[:open])
		run = append(run, Span{Text: body[:closing], Emphasized: true})
		rest = body[closing+len(emphasisMarker):]
	}
	plain(rest)
	return run
}
