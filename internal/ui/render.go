package ui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/browse"
	"github.com/lansepyy/article-admin/internal/paging"
	"github.com/mattn/go-runewidth"
)

const (
	cardWidth     = 36 // outer width including border
	cardHeight    = 6  // outer height including border
	listRowHeight = 2
)

// View implements tea.Model.
func (m *Model) View() string {
	if !m.started {
		return "Loading..."
	}

	v := m.ctrl.View()
	sections := []string{m.renderHeader(v), m.renderFilterBar(v)}

	switch {
	case m.focus == focusPicker:
		sections = append(sections, m.renderPicker())
	case m.breakpoint.Compact():
		sections = append(sections, m.renderList(v))
	default:
		sections = append(sections, m.renderGrid(v), m.renderPagination(v))
	}

	sections = append(sections, m.renderStatus(v), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// bodyHeight is the number of lines left for items.
func (m *Model) bodyHeight() int {
	chrome := 3 + lipgloss.Height(m.help.View(m.keys)) // header, filter bar, status
	if !m.breakpoint.Compact() {
		chrome++ // pagination bar
	}
	return max(m.height-chrome, 1)
}

func (m *Model) gridColumns() int {
	return max(m.width/(cardWidth+1), 1)
}

func (m *Model) renderHeader(v browse.View) string {
	title := Header.Render("Articles")
	badge := ModeBadge.Render(v.Mode.Kind().String())
	count := ""
	if v.Total > 0 {
		count = Muted.Render(fmt.Sprintf("  %d matches", v.Total))
	}
	return title + badge + count
}

func (m *Model) renderFilterBar(v browse.View) string {
	category := "All"
	if v.Filter.Category != "" {
		category = v.Filter.Category
		for _, c := range m.choices {
			if c.value == v.Filter.Category {
				category = c.label
				break
			}
		}
	}
	timeRange := v.Filter.TimeRange
	if timeRange == "" {
		timeRange = "all"
	}

	parts := []string{
		m.search.View(),
		FilterLabel.Render("category ") + FilterValue.Render(category),
		FilterLabel.Render("range ") + FilterValue.Render(timeRange),
		FilterLabel.Render("images ") + FilterValue.Render(m.imageMode),
	}
	return FilterBar.Render(strings.Join(parts, "  "))
}

func (m *Model) renderGrid(v browse.View) string {
	h := m.bodyHeight()
	if len(v.Items) == 0 {
		return lipgloss.NewStyle().Height(h).Render(m.emptyMessage(v))
	}

	cols := m.gridColumns()
	visibleRows := max(h/cardHeight, 1)
	var rows []string
	for r := m.top; r < m.top+visibleRows; r++ {
		start := r * cols
		if start >= len(v.Items) {
			break
		}
		end := min(start+cols, len(v.Items))
		cards := make([]string, 0, end-start)
		for i := start; i < end; i++ {
			cards = append(cards, m.renderCard(v.Items[i], i == m.cursor))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.NewStyle().Height(h).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (m *Model) renderCard(item api.Item, selected bool) string {
	inner := cardWidth - 4
	style := Card
	if selected {
		style = SelectedCard
	}

	meta := item.Category
	if item.SubType != "" {
		meta += " / " + item.SubType
	}
	facts := []string{item.PublishDate}
	if s := formatSize(item.Size); s != "" {
		facts = append(facts, s)
	}
	stock := ""
	if item.InStock {
		stock = InStock.Render(" ✓")
	}

	lines := []string{
		CardTitle.Render(truncate(item.Title, inner)),
		CategoryBadge.Render(truncate(meta, inner-2)),
		CardMeta.Render(truncate(strings.Join(facts, " · "), inner-2)) + stock,
		Muted.Render(truncate(m.imageLine(item), inner)),
	}
	return style.Width(cardWidth - 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderList(v browse.View) string {
	h := m.bodyHeight()
	var lines []string
	width := max(m.width-2, 10)

	for i, item := range v.Items {
		style := ListRow
		if i == m.cursor {
			style = SelectedRow
		}
		lines = append(lines,
			style.Render(truncate(item.Title, width)),
			CardMeta.Render("  "+truncate(fmt.Sprintf("%s · %s", item.Category, item.PublishDate), width-2)),
		)
	}
	lines = append(lines, Sentinel.Render(m.sentinelText(v)))

	from := min(m.top, len(lines))
	to := min(from+h, len(lines))
	return lipgloss.NewStyle().Height(h).Render(strings.Join(lines[from:to], "\n"))
}

func (m *Model) sentinelText(v browse.View) string {
	switch {
	case v.Loading && len(v.Items) == 0:
		return m.spinner.View() + " loading"
	case v.IsLoadingMore:
		return m.spinner.View() + " loading more"
	case v.Err != nil:
		return "load failed, r to retry"
	case v.HasMore:
		return fmt.Sprintf("%d of %d loaded", len(v.Items), v.Total)
	case len(v.Items) == 0:
		return "no matches"
	}
	return fmt.Sprintf("end of results (%d)", len(v.Items))
}

// renderPagination draws nothing for a single page.
func (m *Model) renderPagination(v browse.View) string {
	if v.TotalPages <= 1 {
		return ""
	}

	parts := []string{PageNumber.Render("«"), PageNumber.Render("‹")}
	for _, label := range paging.Compress(v.Page, v.TotalPages, m.siblings) {
		if int(label) == v.Page {
			parts = append(parts, CurrentPage.Render(label.String()))
			continue
		}
		parts = append(parts, PageNumber.Render(label.String()))
	}
	parts = append(parts, PageNumber.Render("›"), PageNumber.Render("»"))

	bar := strings.Join(parts, "")
	bar += Muted.Render(fmt.Sprintf("  page %d/%d", v.Page, v.TotalPages))
	if m.focus == focusJump {
		bar += "  " + m.jump.View()
	}
	return bar
}

func (m *Model) renderPicker() string {
	h := m.bodyHeight()
	if len(m.choices) == 0 {
		return Picker.Render("no categories loaded")
	}

	visible := max(h-2, 1)
	from := 0
	if m.pickerCursor >= visible {
		from = m.pickerCursor - visible + 1
	}
	to := min(from+visible, len(m.choices))

	lines := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		c := m.choices[i]
		label := strings.Repeat("  ", c.depth) + c.label
		if i == m.pickerCursor {
			lines = append(lines, PickerSelected.Render(label))
		} else {
			lines = append(lines, PickerItem.Render(label))
		}
	}
	return Picker.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderStatus(v browse.View) string {
	switch {
	case m.inputErr != nil:
		return ErrorStyle.Render(m.inputErr.Error())
	case v.Err != nil:
		return ErrorStyle.Render("Error: " + v.Err.Error() + " (r to retry)")
	case m.status != "":
		return StatusBar.Render(m.status)
	case v.Loading:
		return StatusBar.Render(m.spinner.View() + " loading")
	}
	return StatusBar.Render(fmt.Sprintf("%d items", len(v.Items)))
}

func (m *Model) emptyMessage(v browse.View) string {
	if v.Loading {
		return m.spinner.View() + " loading"
	}
	if v.Err != nil {
		return "nothing to show"
	}
	return "no matches"
}

// imageLine renders the first preview image per the display mode.
func (m *Model) imageLine(item api.Item) string {
	if len(item.PreviewImages) == 0 {
		return ""
	}
	switch m.imageMode {
	case ImagesHide:
		return ""
	case ImagesBlur:
		u, err := url.Parse(item.PreviewImages[0])
		if err != nil || u.Host == "" {
			return "[image]"
		}
		return "[image: " + u.Host + "]"
	}
	return item.PreviewImages[0]
}

// truncate cuts s to w terminal columns.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return runewidth.Truncate(s, w, "…")
}

// formatSize renders a size in MiB.
func formatSize(size *float64) string {
	if size == nil || *size <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(*size * 1024 * 1024))
}
