// Package output formats catalog results for the non-interactive commands.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/lansepyy/article-admin/internal/api"
	"github.com/mattn/go-runewidth"
)

// TitleWidth bounds titles in text listings.
const TitleWidth = 60

// StreamJSON writes items as a compact JSON array as they arrive.
func StreamJSON(w io.Writer, items <-chan api.Item) (int, error) {
	if _, err := io.WriteString(w, "["); err != nil {
		return 0, err
	}
	n := 0
	for item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return n, fmt.Errorf("encode item %d: %w", item.ID, err)
		}
		if n > 0 {
			if _, err := io.WriteString(w, ","); err != nil {
				return n, err
			}
		}
		if _, err := w.Write(data); err != nil {
			return n, err
		}
		n++
	}
	_, err := io.WriteString(w, "]\n")
	return n, err
}

// StreamText writes one line per item as they arrive.
func StreamText(w io.Writer, items <-chan api.Item) (int, error) {
	n := 0
	for item := range items {
		if _, err := fmt.Fprintln(w, ItemLine(item)); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// PrintPage writes one page of items followed by a position summary.
func PrintPage(w io.Writer, page api.PageResult, pageNo, totalPages int) error {
	for _, item := range page.Items {
		if _, err := fmt.Fprintln(w, ItemLine(item)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "-- page %d/%d, %d matches\n", pageNo, totalPages, page.Total)
	return err
}

// ItemLine is the single-line text form of an item.
func ItemLine(item api.Item) string {
	category := item.Category
	if item.SubType != "" {
		category += "/" + item.SubType
	}
	stock := " "
	if item.InStock {
		stock = "*"
	}
	return fmt.Sprintf("%8d %s %s  %-16s %s",
		item.ID, stock, item.PublishDate, runewidth.Truncate(category, 16, "…"),
		runewidth.Truncate(item.Title, TitleWidth, "…"))
}

// PrintCategories renders the category tree as a table with a total row.
func PrintCategories(w io.Writer, cats []api.Category) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CATEGORY", "COUNT")

	total := 0
	for _, c := range cats {
		total += c.Count
		t.Row(c.Name, strconv.Itoa(c.Count))
		for _, sub := range c.Subcategories {
			t.Row("  "+sub.Name, strconv.Itoa(sub.Count))
		}
	}
	t.Row("total", strconv.Itoa(total))

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
