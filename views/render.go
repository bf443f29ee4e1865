package views

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/trezcool/syllabus/core/syllabus"
)

// Palette
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
)

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeSpace  = "   "
)

// IsTerminal reports whether w is an interactive terminal. Anything else gets JSON.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Write renders st for a terminal, or encodes it as JSON for anything else.
func Write(w io.Writer, st State) error {
	if !IsTerminal(w) {
		return WriteJSON(w, st)
	}
	_, err := io.WriteString(w, RenderState(st))
	return err
}

func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderState renders the header, the inline message and the tree of a screen.
func RenderState(st State) string {
	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("%s %s", st.Selection.OwnerID, st.Selection.Month)))
	b.WriteString("\n")

	if st.Message != "" {
		style := StyleYellow
		if st.Status == StatusFailed || st.Tree != nil {
			style = StyleRed
		}
		b.WriteString(style.Render(st.Message) + "\n")
	}

	switch {
	case st.Tree != nil:
		b.WriteString(RenderTree(*st.Tree))
	case st.Status == StatusEmpty && st.CanCreate:
		b.WriteString(StyleDim.Render("Create it with `edit init` then `save`.") + "\n")
	}
	return b.String()
}

// Header renders a section header with an underline.
func Header(text string) string {
	line := strings.Repeat("─", lipgloss.Width(text))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(text), StyleDim.Render(line))
}

type treeLine struct {
	content string
	badge   string
	hint    string
}

// RenderTree renders weeks, topics and subtopics with their badges and the commands each affordance maps to.
// Subtopics are addressed as WEEK.TOPIC.SUBTOPIC, topics as WEEK.TOPIC.
func RenderTree(t Tree) string {
	lines := []treeLine{{
		content: StyleBold.Render(progressText(t.State, t.Counts)),
		hint:    hints(t.Actions, ""),
	}}

	for wi, w := range t.Weeks {
		lastWeek := wi == len(t.Weeks)-1
		lines = append(lines, treeLine{
			content: connector(lastWeek) + StyleBold.Render("Week "+strconv.Itoa(w.WeekNumber)) + " " + stateMark(w.State),
		})
		weekPrefix := treePipe
		if lastWeek {
			weekPrefix = treeSpace
		}

		for ti, tn := range w.Topics {
			lastTopic := ti == len(w.Topics)-1
			title := tn.Title
			if title == "" {
				title = StyleDim.Render("(untitled)")
			}
			lines = append(lines, treeLine{
				content: weekPrefix + connector(lastTopic) + title + " " + stateMark(tn.State),
				badge:   renderBadge(tn.Badge),
				hint:    hints(tn.Actions, fmt.Sprintf("%d.%d", tn.WeekNumber, tn.Index)),
			})
			topicPrefix := weekPrefix + treePipe
			if lastTopic {
				topicPrefix = weekPrefix + treeSpace
			}

			for si, st := range tn.Subtopics {
				box := "☐ "
				title := st.Title
				if st.Status == syllabus.StatusCompleted {
					box = StyleGreen.Render("✔ ")
					title = StyleDim.Render(title)
				}
				addr := fmt.Sprintf("%d.%d.%d", st.Ref.WeekNumber, st.Ref.TopicIndex, st.Ref.SubtopicIndex)
				lines = append(lines, treeLine{
					content: topicPrefix + connector(si == len(tn.Subtopics)-1) + box + title,
					badge:   renderBadge(st.Badge),
					hint:    hints(st.Actions, addr),
				})
			}
		}
	}
	return alignLines(lines)
}

// RenderHistory renders the audit trail of a document as a table.
func RenderHistory(events []syllabus.Event) string {
	headers := []string{"VERSION", "WHEN", "WHO", "ACTION", "WHERE"}
	rows := make([][]string, 0, len(events))
	for _, ev := range events {
		rows = append(rows, []string{
			strconv.Itoa(ev.Version),
			ev.CreatedAt.Local().Format(time.RFC822),
			ev.ActorName,
			ev.Action,
			eventAddress(ev),
		})
	}
	return RenderTable(headers, rows)
}

// RenderTable renders an aligned table with a header separator line.
func RenderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	const colGap = 2

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := range headers {
			var cell string
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			b.WriteString(cell)
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &StyleHeader)
	seps := make([]string, len(widths))
	for i, w := range widths {
		seps[i] = strings.Repeat("─", w)
	}
	writeRow(seps, &StyleDim)
	for _, row := range rows {
		writeRow(row, nil)
	}
	return b.String()
}

// alignLines right-aligns badges and hints after the widest tree content.
func alignLines(lines []treeLine) string {
	var maxWidth int
	for _, l := range lines {
		if w := lipgloss.Width(l.content); w > maxWidth {
			maxWidth = w
		}
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l.content)
		if l.badge != "" || l.hint != "" {
			b.WriteString(strings.Repeat(" ", maxWidth-lipgloss.Width(l.content)))
			if l.badge != "" {
				b.WriteString("  " + l.badge)
			}
			if l.hint != "" {
				b.WriteString("  " + l.hint)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func connector(last bool) string {
	if last {
		return treeCorner
	}
	return treeBranch
}

func renderBadge(badge Badge) string {
	switch badge {
	case BadgePending:
		return StyleYellow.Render(string(badge))
	case BadgeApproved:
		return StyleGreen.Render(string(badge))
	}
	return ""
}

func stateMark(state string) string {
	switch state {
	case syllabus.StateApproved:
		return StyleGreen.Render("●")
	case syllabus.StatePendingApproval:
		return StyleYellow.Render("●")
	case syllabus.StateIncomplete:
		return StyleRed.Render("○")
	}
	return StyleDim.Render("○")
}

func hints(actions []Action, addr string) string {
	if len(actions) == 0 {
		return ""
	}
	parts := make([]string, 0, len(actions))
	for _, a := range actions {
		cmd := string(a)
		if addr != "" {
			cmd += " " + addr
		}
		parts = append(parts, fmt.Sprintf("[ %s ]", cmd))
	}
	return StyleBlue.Render(strings.Join(parts, " "))
}

func progressText(state string, c syllabus.Counts) string {
	if c.Total == 0 {
		return "No subtopics yet"
	}
	text := fmt.Sprintf("%d/%d completed, %d/%d approved", c.Completed, c.Total, c.Approved, c.Total)
	if c.Pending > 0 {
		text += fmt.Sprintf(", %d pending approval", c.Pending)
	}
	if state == syllabus.StateApproved {
		text += " ✔"
	}
	return text
}

func eventAddress(ev syllabus.Event) string {
	switch {
	case ev.SubtopicIndex != nil && ev.WeekNumber != nil && ev.TopicIndex != nil:
		return fmt.Sprintf("%d.%d.%d", *ev.WeekNumber, *ev.TopicIndex, *ev.SubtopicIndex)
	case ev.WeekNumber != nil && ev.TopicIndex != nil:
		return fmt.Sprintf("%d.%d", *ev.WeekNumber, *ev.TopicIndex)
	}
	return "-"
}
