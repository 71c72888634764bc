package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nateberkopec/jobalert/internal/icon"
	"github.com/nateberkopec/jobalert/internal/notifier"
	"github.com/nateberkopec/jobalert/internal/watch"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("247"))

	rowStyle  = lipgloss.NewStyle()
	readStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("57")).
				Foreground(lipgloss.Color("230"))

	statusNeutralStyle = lipgloss.NewStyle()
	statusErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	statusSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	promptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("105")).Padding(0, 1)
	deniedStyle = promptStyle.BorderForeground(lipgloss.Color("203"))

	inputStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputFocusedStyle = inputStyle.BorderForeground(lipgloss.Color("105"))

	tableGap = " │ "
)

var tableColumns = []struct {
	Title  string
	Weight float64
	Min    int
}{
	{"", 0.04, 2},
	{"Title", 0.28, 14},
	{"Message", 0.34, 16},
	{"Type", 0.10, 8},
	{"Company", 0.14, 10},
	{"Shown", 0.10, 8},
}

func renderView(m *Model) string {
	if m.width == 0 || m.height == 0 {
		return "Loading…"
	}

	var out []string
	out = append(out, renderInputField(m))
	out = append(out, renderHelpText(m))
	out = append(out, renderHeader(m))
	if banner := renderBanner(m); banner != "" {
		out = append(out, banner)
	}
	out = append(out, renderFeedTable(m))
	out = append(out, renderStatusLine(m))

	return strings.Join(out, "\n")
}

func renderHeader(m *Model) string {
	mode := "recent"
	if m.showDismissed {
		mode = "dismissed"
	}

	last := "none"
	if id, ok := m.client.Watermark(); ok {
		last = fmt.Sprintf("#%d", id)
	}

	text := fmt.Sprintf("jobalert • %s • last seen: %s • unread: %d • view: %s • bell: %s",
		m.state, last, m.unread, mode, bellEmoji(m.bellEnabled))
	return titleStyle.Width(m.width).Render(pad(text, m.width))
}

// renderBanner shows the permission prompt or the denial notice.
func renderBanner(m *Model) string {
	width := max(10, m.width-2)
	switch {
	case m.promptShown:
		text := "Enable desktop alerts for new jobs and approaching deadlines?  [y] allow  [n] block"
		return promptStyle.Width(width).Render(truncate(text, width-2))
	case m.deniedNotice:
		text := "Desktop alerts are blocked. Run `jobalert permission reset` to be asked again.  [x] dismiss"
		return deniedStyle.Width(width).Render(truncate(text, width-2))
	}
	return ""
}

func renderFeedTable(m *Model) string {
	entries := m.feed.Visible(m.showDismissed)
	widths := calculateColumnWidths(m.width)

	builder := strings.Builder{}
	header := renderRow(tableHeaders(), widths, headerStyle)
	builder.WriteString(header)

	dataRows := m.dataRows()

	start := m.scrollOffset
	end := min(start+dataRows, len(entries))
	linesUsed := 1

	for idx := start; idx < end; idx++ {
		builder.WriteString("\n")
		entry := entries[idx]
		style := rowStyle
		if entry.Read {
			style = readStyle
		}
		rowStr := renderRow(tableRowData(entry, m.now()), widths, style)
		if idx == m.selectedIndex && m.focus == focusFeed {
			rowStr = selectedRowStyle.Width(m.width).Render(rowStr)
		}
		builder.WriteString(rowStr)
		linesUsed++
	}

	for linesUsed < m.listArea.height {
		builder.WriteString("\n")
		builder.WriteString(strings.Repeat(" ", max(0, m.width)))
		linesUsed++
	}

	return builder.String()
}

func renderHelpText(m *Model) string {
	help := "[tab] compose • [p] pause/resume • [r] poll now • [o] open • [m] mark read • [d] dismiss/restore • [D] dismissed • [b] bell • [q] quit"
	return helpStyle.Width(m.width).Render(truncate(help, m.width))
}

func renderStatusLine(m *Model) string {
	msg := m.status.text
	if msg == "" {
		msg = idleStatus(m)
	}

	style := statusNeutralStyle
	switch m.status.kind {
	case statusError:
		style = statusErrorStyle
	case statusSuccess:
		style = statusSuccessStyle
	}

	if m.state == notifier.StatePolling || m.pending {
		label := fmt.Sprintf("polling %s", m.spin.View())
		if !m.lastPoll.IsZero() {
			label = fmt.Sprintf("polling %s (last %s)", m.spin.View(), humanizeAgo(m.now().Sub(m.lastPoll)))
		}
		msg = fmt.Sprintf("%s   %s", msg, label)
	}

	return style.Width(m.width).Render(pad(truncate(msg, m.width), m.width))
}

func idleStatus(m *Model) string {
	switch m.state {
	case notifier.StateUnsupported:
		return "Desktop notifications are not available on this system"
	case notifier.StateDenied:
		return "Alerts blocked"
	case notifier.StateStopped:
		return "Polling paused, press p to resume"
	case notifier.StatePromptShown:
		return "Waiting for permission"
	}
	return ""
}

func renderInputField(m *Model) string {
	view := m.input.View()
	if m.focus == focusInput {
		return inputFocusedStyle.Render(view)
	}
	return inputStyle.Render(view)
}

func tableHeaders() []string {
	titles := make([]string, len(tableColumns))
	for i, c := range tableColumns {
		titles[i] = c.Title
	}
	return titles
}

func tableRowData(entry *watch.Entry, now time.Time) []string {
	kind := string(entry.Item.Category)
	if entry.Manual {
		kind = "manual"
	}
	return []string{
		icon.For(entry.Item.Category).Glyph,
		entry.Item.Title,
		entry.Item.Body,
		kind,
		entry.Item.Company,
		humanizeAgo(now.Sub(entry.ShownAt)),
	}
}

func renderRow(cells []string, widths []int, style lipgloss.Style) string {
	// Only include columns with non-zero widths
	var parts []string
	visibleCols := 0
	for i, cell := range cells {
		if widths[i] > 0 {
			cell = truncate(cell, widths[i])
			parts = append(parts, lipgloss.NewStyle().Width(widths[i]).Render(cell))
			visibleCols++
		}
	}
	row := strings.Join(parts, tableGap)
	rowWidth := lipgloss.Width(row)
	target := 0
	for _, w := range widths {
		if w > 0 {
			target += w
		}
	}
	if visibleCols > 0 {
		target += (visibleCols - 1) * lipgloss.Width(tableGap)
	}
	if rowWidth < target {
		row += strings.Repeat(" ", target-rowWidth)
	}
	return style.Render(row)
}

func calculateColumnWidths(total int) []int {
	if total <= 0 {
		total = 80
	}

	widths := make([]int, len(tableColumns))

	// Drop columns from the right when space is insufficient
	for numCols := len(tableColumns); numCols >= 1; numCols-- {
		gaps := numCols - 1
		available := total - gaps*lipgloss.Width(tableGap)
		if available < numCols {
			continue
		}

		minRequired := 0
		totalWeight := 0.0
		for i := 0; i < numCols; i++ {
			minRequired += tableColumns[i].Min
			totalWeight += tableColumns[i].Weight
		}

		if available < minRequired {
			continue
		}

		sum := 0
		for i := 0; i < numCols; i++ {
			col := tableColumns[i]
			width := max(col.Min, int(float64(available)*col.Weight/totalWeight))
			widths[i] = width
			sum += width
		}

		if diff := available - sum; diff > 0 {
			widths[numCols-1] += diff
		}

		for i := numCols; i < len(tableColumns); i++ {
			widths[i] = 0
		}
		return widths
	}

	widths[0] = max(1, total)
	for i := 1; i < len(widths); i++ {
		widths[i] = 0
	}
	return widths
}

func truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(text) <= width {
		return text
	}
	if width <= 1 {
		return lipgloss.NewStyle().MaxWidth(1).Render(text)
	}
	trimmed := lipgloss.NewStyle().MaxWidth(width - 1).Render(text)
	return trimmed + "…"
}

func pad(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func humanizeAgo(d time.Duration) string {
	if d < time.Second {
		return "just now"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
	return fmt.Sprintf("%dd ago", int(d.Hours()/24))
}

func bellEmoji(enabled bool) string {
	if enabled {
		return "🔔"
	}
	return "🔕"
}
