package ui

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/browse"
	"github.com/lansepyy/article-admin/internal/debounce"
	"github.com/mattn/go-runewidth"
)

// idleClock never fires; keyword settling is driven by KeywordSettled.
type idleClock struct{}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func (idleClock) AfterFunc(time.Duration, func()) debounce.Timer { return idleTimer{} }

func newTestModel(t *testing.T, items int) (*Model, *api.InMemoryTransport, *[]string) {
	t.Helper()
	transport := api.NewInMemoryTransport()
	for i := 1; i <= items; i++ {
		cat := "books"
		if i%2 == 0 {
			cat = "music"
		}
		transport.Seed(api.Item{
			ID:            int64(i),
			Title:         fmt.Sprintf("Item %d", i),
			Category:      cat,
			PublishDate:   fmt.Sprintf("2024-07-%02d", (i%28)+1),
			MagnetLink:    fmt.Sprintf("magnet:?xt=urn:btih:%d", i),
			PreviewImages: []string{"https://img.example.com/a.jpg"},
		})
	}

	var copied []string
	m := New(api.NewArticleAPI(transport), Options{
		PageSize: 10,
		Clock:    idleClock{},
		Copy: func(s string) error {
			copied = append(copied, s)
			return nil
		},
	})
	t.Cleanup(m.Close)
	return m, transport, &copied
}

// pump runs cmd and feeds every message it yields back into m until
// nothing is left. Commands that block (timers, the keyword channel) are
// abandoned after a short wait.
func pump(m *Model, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := runCmd(c)
		if !ok {
			continue
		}
		switch msg := msg.(type) {
		case nil, spinner.TickMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func runCmd(c tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(200 * time.Millisecond):
		return nil, false
	}
}

func send(m *Model, msg tea.Msg) {
	_, cmd := m.Update(msg)
	pump(m, cmd)
}

func keys(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func searches(tr *api.InMemoryTransport) []*api.SearchRequest {
	var out []*api.SearchRequest
	for _, r := range tr.Requests() {
		if r.Search != nil {
			out = append(out, r.Search)
		}
	}
	return out
}

func TestViewBeforeFirstSize(t *testing.T) {
	m, tr, _ := newTestModel(t, 5)

	if got := m.View(); got != "Loading..." {
		t.Errorf("Expected Loading..., got %q", got)
	}
	if m.Init() == nil {
		t.Error("Init should return a command")
	}
	if n := len(searches(tr)); n != 0 {
		t.Errorf("No search should run before the first window size, got %d", n)
	}
}

func TestWideStartsDiscrete(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)

	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})

	reqs := searches(tr)
	if len(reqs) != 1 || reqs[0].Page != 1 || reqs[0].PerPage != 10 {
		t.Fatalf("Expected one page 1 search, got %+v", reqs)
	}
	if m.ctrl.ActiveMode() != browse.Discrete {
		t.Errorf("Expected discrete mode at 200 columns")
	}
	if view := m.View(); !strings.Contains(view, "page 1/3") {
		t.Errorf("Expected pagination bar with page 1/3, got:\n%s", view)
	}
}

func TestWideSinglePageHasNoPagination(t *testing.T) {
	m, _, _ := newTestModel(t, 8)

	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})

	view := m.View()
	if !strings.Contains(view, "Item 1") {
		t.Fatalf("Expected items to render, got:\n%s", view)
	}
	if strings.Contains(view, "page 1/1") || strings.Contains(view, "«") {
		t.Errorf("Expected no pagination bar for a single page, got:\n%s", view)
	}

	send(m, keys(":"))
	if m.focus == focusJump {
		t.Error("Page jump should not open with a single page")
	}
}

func TestCompactFillsViewportThroughSentinel(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)

	// 80 columns is below the breakpoint; the first page leaves the
	// sentinel on screen so a second page follows without scrolling.
	send(m, tea.WindowSizeMsg{Width: 80, Height: 40})

	if m.ctrl.ActiveMode() != browse.Cumulative {
		t.Fatalf("Expected cumulative mode at 80 columns")
	}
	reqs := searches(tr)
	if len(reqs) != 2 || reqs[0].Page != 1 || reqs[1].Page != 2 {
		t.Fatalf("Expected pages 1 and 2, got %+v", reqs)
	}
	v := m.ctrl.View()
	if len(v.Items) != 20 || !v.HasMore {
		t.Errorf("Expected 20 items with more to load, got %d hasMore=%v", len(v.Items), v.HasMore)
	}
}

func TestCompactScrollToEndLoadsNextPage(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)
	send(m, tea.WindowSizeMsg{Width: 80, Height: 40})

	for i := 0; i < 19; i++ {
		send(m, keys("j"))
	}

	reqs := searches(tr)
	if len(reqs) != 3 || reqs[2].Page != 3 {
		t.Fatalf("Expected a page 3 request after scrolling to the end, got %+v", reqs)
	}
	v := m.ctrl.View()
	if len(v.Items) != 25 || v.HasMore {
		t.Errorf("Expected all 25 items and no more, got %d hasMore=%v", len(v.Items), v.HasMore)
	}

	// Scrolling further at the end asks for nothing.
	send(m, keys("j"))
	if n := len(searches(tr)); n != 3 {
		t.Errorf("Expected no further requests, got %d", n)
	}
}

func TestKeywordWaitsForSettle(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)
	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})

	send(m, keys("/"))
	for _, r := range "Item 2" {
		send(m, keys(string(r)))
	}
	if n := len(searches(tr)); n != 1 {
		t.Fatalf("Typing should not fetch before the keyword settles, got %d searches", n)
	}
	if m.ctrl.View().Filter.Keyword != "Item 2" {
		t.Errorf("Expected raw keyword in filter, got %q", m.ctrl.View().Filter.Keyword)
	}

	send(m, KeywordSettled{Keyword: "Item 2"})

	reqs := searches(tr)
	if len(reqs) != 2 || reqs[1].Keyword != "Item 2" || reqs[1].Page != 1 {
		t.Fatalf("Expected one keyword search for page 1, got %+v", reqs)
	}
}

func TestTypingAwayFromFirstPageWaitsForSettle(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)
	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})
	send(m, keys("n"))

	send(m, keys("/"))
	for _, r := range "Item" {
		send(m, keys(string(r)))
	}
	if n := len(searches(tr)); n != 2 {
		t.Fatalf("Typing should not fetch before the keyword settles, got %d searches", n)
	}
	if v := m.ctrl.View(); v.Page != 2 {
		t.Errorf("Expected page 2 kept while typing, got %d", v.Page)
	}

	send(m, KeywordSettled{Keyword: "Item"})

	reqs := searches(tr)
	if len(reqs) != 3 || reqs[2].Keyword != "Item" || reqs[2].Page != 1 {
		t.Fatalf("Expected one keyword search for page 1, got %+v", reqs)
	}
}

func TestPageNavigation(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)
	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})

	send(m, keys("n"))
	send(m, keys("]"))
	send(m, keys("n")) // past the last page
	send(m, keys("["))

	var pages []int
	for _, r := range searches(tr) {
		pages = append(pages, r.Page)
	}
	want := []int{1, 2, 3, 1}
	if fmt.Sprint(pages) != fmt.Sprint(want) {
		t.Errorf("Expected pages %v, got %v", want, pages)
	}
}

func TestPageJumpRejectsOutOfRange(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)
	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})

	send(m, keys(":"))
	send(m, keys("9"))
	send(m, keys("9"))
	send(m, tea.KeyMsg{Type: tea.KeyEnter})

	if n := len(searches(tr)); n != 1 {
		t.Errorf("Invalid jump must not fetch, got %d searches", n)
	}
	if m.focus != focusJump || m.jump.Value() != "99" {
		t.Errorf("Expected jump input kept as 99, got focus=%v value=%q", m.focus, m.jump.Value())
	}
	if !strings.Contains(m.View(), "page must be between 1 and 3") {
		t.Errorf("Expected rejection message in view")
	}

	send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	send(m, keys("2"))
	send(m, tea.KeyMsg{Type: tea.KeyEnter})

	reqs := searches(tr)
	if len(reqs) != 2 || reqs[1].Page != 2 {
		t.Fatalf("Expected jump to page 2, got %+v", reqs)
	}
	if m.focus != focusNone {
		t.Errorf("Expected jump input closed after a valid jump")
	}
}

func TestResizeSwitchesMode(t *testing.T) {
	m, _, _ := newTestModel(t, 25)
	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})
	send(m, tea.WindowSizeMsg{Width: 80, Height: 40})

	if m.ctrl.ActiveMode() != browse.Cumulative {
		t.Fatalf("Expected cumulative after narrowing")
	}
	if _, ok := m.ctrl.View().Mode.(browse.CumulativeMode); !ok {
		t.Errorf("Expected CumulativeMode view, got %T", m.ctrl.View().Mode)
	}

	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})
	if m.ctrl.ActiveMode() != browse.Discrete {
		t.Errorf("Expected discrete after widening")
	}
}

func TestCategoryPicker(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)
	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})
	send(m, CategoriesLoaded{Categories: []api.Category{
		{Name: "books", Count: 13, Subcategories: []api.Category{{Name: "novel", Count: 4}}},
		{Name: "music", Count: 12},
	}})

	send(m, keys("c"))
	if !strings.Contains(m.View(), "books(13)") || !strings.Contains(m.View(), "All(25)") {
		t.Errorf("Expected picker with counts, got:\n%s", m.View())
	}
	send(m, keys("j"))
	send(m, tea.KeyMsg{Type: tea.KeyEnter})

	reqs := searches(tr)
	if len(reqs) != 2 || reqs[1].Section != "books" {
		t.Fatalf("Expected a books search, got %+v", reqs)
	}
	if m.focus != focusNone {
		t.Errorf("Expected picker closed")
	}
}

func TestTimeRangeCycleAndReset(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)
	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})

	send(m, keys("t"))
	if got := m.ctrl.View().Filter.TimeRange; got != "7d" {
		t.Fatalf("Expected 7d after one press, got %q", got)
	}
	reqs := searches(tr)
	if len(reqs) != 2 || reqs[1].PublishDateRange.From == "" {
		t.Fatalf("Expected a dated search, got %+v", reqs)
	}

	send(m, keys("x"))
	if f := m.ctrl.View().Filter; !f.IsEmpty() {
		t.Errorf("Expected empty filter after reset, got %+v", f)
	}
	if n := len(searches(tr)); n != 3 {
		t.Errorf("Expected a refetch of the unfiltered list, got %d searches", n)
	}
}

func TestFailureAndRetry(t *testing.T) {
	m, tr, _ := newTestModel(t, 25)
	tr.FailNext(errors.New("connection refused"))

	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})
	if v := m.ctrl.View(); v.Err == nil {
		t.Fatalf("Expected a failed view")
	}
	if !strings.Contains(m.View(), "r to retry") {
		t.Errorf("Expected retry hint in view")
	}

	send(m, keys("r"))
	if v := m.ctrl.View(); v.Err != nil || len(v.Items) != 10 {
		t.Errorf("Expected recovery after retry, got err=%v items=%d", v.Err, len(v.Items))
	}
}

func TestCopyMagnet(t *testing.T) {
	m, _, copied := newTestModel(t, 3)
	send(m, tea.WindowSizeMsg{Width: 200, Height: 40})

	send(m, keys("l"))
	send(m, keys("y"))

	items := m.ctrl.View().Items
	if len(*copied) != 1 || (*copied)[0] != items[1].MagnetLink {
		t.Errorf("Expected magnet of the second card copied, got %v", *copied)
	}
	if !strings.Contains(m.status, "copied") {
		t.Errorf("Expected copied status, got %q", m.status)
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t, 1)
	_, cmd := m.Update(keys("q"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestImageLine(t *testing.T) {
	m, _, _ := newTestModel(t, 0)
	item := api.Item{PreviewImages: []string{"https://img.example.com/p/1.jpg"}}

	tests := []struct {
		mode string
		want string
	}{
		{ImagesShow, "https://img.example.com/p/1.jpg"},
		{ImagesBlur, "[image: img.example.com]"},
		{ImagesHide, ""},
	}
	for _, tt := range tests {
		m.imageMode = tt.mode
		if got := m.imageLine(item); got != tt.want {
			t.Errorf("imageLine(%s) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestTruncateAndSize(t *testing.T) {
	if got := truncate("你好世界", 5); runewidth.StringWidth(got) > 5 || !strings.HasPrefix(got, "你") {
		t.Errorf("truncate wide runes = %q", got)
	}
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	size := 1.5
	if got := formatSize(&size); got != "1.5 MiB" {
		t.Errorf("formatSize = %q", got)
	}
	if got := formatSize(nil); got != "" {
		t.Errorf("formatSize(nil) = %q", got)
	}
}
