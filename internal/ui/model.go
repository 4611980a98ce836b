package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/lansepyy/article-admin/internal/api"
	"github.com/lansepyy/article-admin/internal/browse"
	"github.com/lansepyy/article-admin/internal/core"
	"github.com/lansepyy/article-admin/internal/debounce"
	"github.com/lansepyy/article-admin/internal/logging"
	"github.com/sirupsen/logrus"
)

// Image display modes.
const (
	ImagesShow = "show"
	ImagesBlur = "blur"
	ImagesHide = "hide"
)

var imageModes = []string{ImagesShow, ImagesBlur, ImagesHide}

// timeRanges is the cycle order of the time range selector.
var timeRanges = []string{"", core.TimeRange7Days, core.TimeRange1Week, core.TimeRange1Month, core.TimeRange1Year}

const statusTimeout = 3 * time.Second

type focusArea int

const (
	focusNone focusArea = iota
	focusKeyword
	focusJump
	focusPicker
)

// Options configures a Model. Zero values use the package defaults.
type Options struct {
	PageSize   int
	StaleTime  time.Duration
	Debounce   time.Duration
	Siblings   int
	Breakpoint int
	CellWidth  int
	ImageMode  string
	Clock      debounce.Clock
	Now        func() time.Time
	Copy       func(string) error
}

// categoryChoice is one selectable row of the category picker.
type categoryChoice struct {
	value string // filter value; "" is all categories
	label string
	depth int
}

// Model is the root Bubble Tea model of the browser. It drives a
// browse.Controller: every transition's requests run as commands and their
// outcomes come back as FetchResolved.
type Model struct {
	source api.DataSource
	ctx    context.Context
	cancel context.CancelFunc

	ctrl       *browse.Controller
	keyword    *debounce.Debouncer[string]
	settled    chan string
	breakpoint *browse.Breakpoint
	sentinel   *browse.Sentinel
	trigger    *browse.ScrollTrigger
	unbind     func()
	pending    []browse.Request

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	search  textinput.Model
	jump    textinput.Model
	focus   focusArea

	categories   []api.Category
	choices      []categoryChoice
	pickerCursor int

	imageMode string
	siblings  int
	cursor    int
	top       int // first visible line (compact) or card row (wide)
	width     int
	height    int
	started   bool
	showHelp  bool

	inputErr error
	status   string
	statusID int

	copyFn func(string) error
	log    *logrus.Entry
}

// New returns a browser over source.
func New(source api.DataSource, opts Options) *Model {
	if opts.Debounce <= 0 {
		opts.Debounce = core.DebounceDelay
	}
	if opts.Siblings <= 0 {
		opts.Siblings = core.SiblingCount
	}
	if opts.ImageMode == "" {
		opts.ImageMode = ImagesShow
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = FilterValue

	search := textinput.New()
	search.Placeholder = "title keyword"
	search.Prompt = "/ "
	search.CharLimit = 120
	search.Width = 24

	jump := textinput.New()
	jump.Placeholder = "page"
	jump.Prompt = "go to: "
	jump.CharLimit = 6
	jump.Width = 6

	m := &Model{
		source:     source,
		ctx:        ctx,
		cancel:     cancel,
		settled:    make(chan string, 1),
		breakpoint: browse.NewBreakpoint(opts.Breakpoint, opts.CellWidth),
		sentinel:   browse.NewSentinel(core.SentinelThreshold),
		keys:       DefaultKeyMap,
		help:       help.New(),
		spinner:    s,
		search:     search,
		jump:       jump,
		imageMode:  opts.ImageMode,
		siblings:   opts.Siblings,
		copyFn:     opts.Copy,
		log:        logging.WithComponent("ui"),
	}
	m.ctrl = browse.NewController(browse.Options{
		PageSize:  opts.PageSize,
		StaleTime: opts.StaleTime,
		Now:       opts.Now,
	})

	emit := func(k string) {
		select {
		case m.settled <- k:
		case <-ctx.Done():
		}
	}
	if opts.Clock != nil {
		m.keyword = debounce.NewWithClock(opts.Clock, opts.Debounce, emit)
	} else {
		m.keyword = debounce.New(opts.Debounce, emit)
	}

	m.unbind = browse.BindViewport(m.breakpoint, m.ctrl, m.dispatch)
	m.trigger = browse.NewScrollTrigger(m.sentinel, m.ctrl, m.dispatch)
	return m
}

// Init implements tea.Model. The first fetch waits for the first window
// size so the initial strategy matches the terminal width.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.waitForKeyword(),
		m.loadCategories(),
	)
}

// Close stops background work. It is safe to call more than once.
func (m *Model) Close() {
	m.cancel()
	m.keyword.Stop()
	m.trigger.Close()
	if m.unbind != nil {
		m.unbind()
		m.unbind = nil
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.breakpoint.Resize(msg.Width)
		if !m.started {
			m.started = true
			m.dispatch(m.ctrl.Start())
		}
		m.clampCursor()
		m.observeSentinel()

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case FetchResolved:
		m.resolve(msg)

	case KeywordSettled:
		m.dispatch(m.ctrl.SetDebouncedKeyword(msg.Keyword))
		m.cursor, m.top = 0, 0
		m.observeSentinel()
		cmds = append(cmds, m.waitForKeyword())

	case CategoriesLoaded:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("category load failed")
			cmds = append(cmds, m.setStatus("categories unavailable: "+msg.Err.Error()))
			break
		}
		m.categories = msg.Categories
		m.choices = buildChoices(msg.Categories)

	case MagnetCopied:
		if msg.Err != nil {
			cmds = append(cmds, m.setStatus("copy failed: "+msg.Err.Error()))
		} else {
			cmds = append(cmds, m.setStatus(fmt.Sprintf("magnet link of #%d copied", msg.ID)))
		}

	case clearStatus:
		if msg.id == m.statusID {
			m.status = ""
		}
	}

	cmds = append(cmds, m.flush())
	return m, tea.Batch(cmds...)
}

// resolve feeds a fetch outcome back into the controller.
func (m *Model) resolve(msg FetchResolved) {
	reqs, err := m.ctrl.Resolve(msg.Req, msg.Result, msg.Err)
	m.dispatch(reqs)

	var failed *browse.FetchFailed
	if errors.As(err, &failed) {
		m.log.WithFields(logrus.Fields{"mode": failed.Mode, "page": failed.Page}).WithError(failed.Err).Debug("fetch failure surfaced")
	}

	m.clampCursor()
	m.observeSentinel()
	if msg.Err == nil && msg.Req.Mode == browse.Cumulative {
		m.trigger.Recheck()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch m.focus {
	case focusKeyword:
		return m.handleKeywordKey(msg)
	case focusJump:
		return m.handleJumpKey(msg)
	case focusPicker:
		m.handlePickerKey(msg)
		m.observeSentinel()
		return nil
	}

	m.inputErr = nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keys.Search):
		m.focus = focusKeyword
		return m.search.Focus()

	case key.Matches(msg, m.keys.Category):
		m.openPicker()

	case key.Matches(msg, m.keys.TimeRange):
		f := m.ctrl.View().Filter
		f.TimeRange = nextOf(timeRanges, f.TimeRange)
		m.applyFilter(f)

	case key.Matches(msg, m.keys.Reset):
		m.keyword.Reset("")
		m.search.SetValue("")
		m.dispatch(m.ctrl.Reset())
		m.cursor, m.top = 0, 0

	case key.Matches(msg, m.keys.Refresh):
		m.dispatch(m.ctrl.Refresh())

	case key.Matches(msg, m.keys.Images):
		m.imageMode = nextOf(imageModes, m.imageMode)

	case key.Matches(msg, m.keys.Copy):
		return m.copyMagnet()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-m.rowStride())
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(m.rowStride())
	case key.Matches(msg, m.keys.Left):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Right):
		m.moveCursor(1)
	}

	if m.ctrl.ActiveMode() == browse.Discrete {
		m.handlePageKey(msg)
	}
	m.observeSentinel()
	return nil
}

func (m *Model) handlePageKey(msg tea.KeyMsg) {
	page := m.ctrl.View().Page
	target := 0

	switch {
	case key.Matches(msg, m.keys.NextPage):
		target = page + 1
	case key.Matches(msg, m.keys.PrevPage):
		target = page - 1
	case key.Matches(msg, m.keys.FirstPage):
		target = 1
	case key.Matches(msg, m.keys.LastPage):
		target = m.ctrl.TotalPages()
	case key.Matches(msg, m.keys.Jump):
		if m.ctrl.TotalPages() <= 1 {
			return
		}
		m.focus = focusJump
		m.jump.Focus()
		return
	default:
		return
	}

	if reqs := m.ctrl.SetPage(target); reqs != nil {
		m.dispatch(reqs)
		m.cursor, m.top = 0, 0
	}
}

func (m *Model) handleKeywordKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Cancel) || key.Matches(msg, m.keys.Confirm) {
		m.focus = focusNone
		m.search.Blur()
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if v := m.search.Value(); v != before {
		f := m.ctrl.View().Filter
		f.Keyword = v
		m.applyFilter(f)
		m.keyword.Observe(v)
	}
	return cmd
}

func (m *Model) handleJumpKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.closeJump()
		return nil
	case key.Matches(msg, m.keys.Confirm):
		reqs, err := m.ctrl.JumpTo(m.jump.Value())
		if err != nil {
			m.inputErr = fmt.Errorf("page must be between 1 and %d", max(m.ctrl.TotalPages(), 1))
			return nil
		}
		m.dispatch(reqs)
		m.cursor, m.top = 0, 0
		m.closeJump()
		return nil
	}

	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return cmd
}

func (m *Model) closeJump() {
	m.focus = focusNone
	m.inputErr = nil
	m.jump.Blur()
	m.jump.SetValue("")
}

func (m *Model) openPicker() {
	m.focus = focusPicker
	m.pickerCursor = 0
	current := m.ctrl.View().Filter.Category
	for i, c := range m.choices {
		if c.value == current {
			m.pickerCursor = i
			break
		}
	}
}

func (m *Model) handlePickerKey(msg tea.KeyMsg) {
	switch {
	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Category):
		m.focus = focusNone
	case key.Matches(msg, m.keys.Up):
		if m.pickerCursor > 0 {
			m.pickerCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.pickerCursor < len(m.choices)-1 {
			m.pickerCursor++
		}
	case key.Matches(msg, m.keys.Confirm):
		m.focus = focusNone
		if m.pickerCursor < len(m.choices) {
			f := m.ctrl.View().Filter
			f.Category = m.choices[m.pickerCursor].value
			m.applyFilter(f)
		}
	}
}

func (m *Model) applyFilter(f api.Filter) {
	reqs, err := m.ctrl.SetFilter(f)
	if err != nil {
		m.inputErr = err
		return
	}
	m.dispatch(reqs)
	m.cursor, m.top = 0, 0
}

func (m *Model) copyMagnet() tea.Cmd {
	items := m.ctrl.View().Items
	if m.cursor >= len(items) {
		return nil
	}
	item := items[m.cursor]
	if item.MagnetLink == "" {
		return m.setStatus("no magnet link for this item")
	}
	copyFn := m.copyFn
	return func() tea.Msg {
		return MagnetCopied{ID: item.ID, Err: copyFn(item.MagnetLink)}
	}
}

// dispatch queues requests for the next flush. The controller and its
// signal subscribers call it synchronously from Update.
func (m *Model) dispatch(reqs []browse.Request) {
	m.pending = append(m.pending, reqs...)
}

// flush turns the queued requests into commands.
func (m *Model) flush() tea.Cmd {
	if len(m.pending) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(m.pending))
	for _, req := range m.pending {
		cmds = append(cmds, m.execute(req))
	}
	m.pending = nil
	return tea.Batch(cmds...)
}

func (m *Model) execute(req browse.Request) tea.Cmd {
	ctx, src := m.ctx, m.source
	return func() tea.Msg {
		result, err := browse.Execute(ctx, src, req)
		return FetchResolved{Req: req, Result: result, Err: err}
	}
}

func (m *Model) waitForKeyword() tea.Cmd {
	ctx, ch := m.ctx, m.settled
	return func() tea.Msg {
		select {
		case k := <-ch:
			return KeywordSettled{Keyword: k}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) loadCategories() tea.Cmd {
	ctx, src := m.ctx, m.source
	return func() tea.Msg {
		cats, err := src.ListCategories(ctx)
		return CategoriesLoaded{Categories: cats, Err: err}
	}
}

func (m *Model) setStatus(s string) tea.Cmd {
	m.statusID++
	m.status = s
	id := m.statusID
	return tea.Tick(statusTimeout, func(time.Time) tea.Msg {
		return clearStatus{id: id}
	})
}

// rowStride is how far up/down moves the cursor.
func (m *Model) rowStride() int {
	if m.breakpoint.Compact() {
		return 1
	}
	return m.gridColumns()
}

func (m *Model) moveCursor(delta int) {
	n := len(m.ctrl.View().Items)
	if n == 0 {
		return
	}
	next := m.cursor + delta
	if next < 0 || next >= n {
		return
	}
	m.cursor = next
	m.scrollToCursor(n)
}

func (m *Model) clampCursor() {
	n := len(m.ctrl.View().Items)
	if m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.scrollToCursor(n)
}

// scrollToCursor keeps the cursor inside the body. In the compact list the
// last item scrolls the sentinel row into view with it.
func (m *Model) scrollToCursor(n int) {
	h := m.bodyHeight()
	if m.breakpoint.Compact() {
		first := m.cursor * listRowHeight
		last := first + listRowHeight
		if n > 0 && m.cursor == n-1 {
			last++
		}
		if first < m.top {
			m.top = first
		}
		if last > m.top+h {
			m.top = last - h
		}
		return
	}

	rows := max(h/cardHeight, 1)
	row := m.cursor / m.gridColumns()
	if row < m.top {
		m.top = row
	}
	if row >= m.top+rows {
		m.top = row - rows + 1
	}
}

// observeSentinel reports how much of the sentinel row the compact list
// shows. The wide layout has no sentinel.
func (m *Model) observeSentinel() {
	if !m.started || !m.breakpoint.Compact() || m.focus == focusPicker {
		m.sentinel.Observe(0)
		return
	}
	line := len(m.ctrl.View().Items) * listRowHeight
	if line >= m.top && line < m.top+m.bodyHeight() {
		m.sentinel.Observe(1)
		return
	}
	m.sentinel.Observe(0)
}

func buildChoices(cats []api.Category) []categoryChoice {
	total := 0
	for _, c := range cats {
		total += c.Count
	}
	choices := []categoryChoice{{value: "", label: fmt.Sprintf("All(%d)", total)}}
	for _, c := range cats {
		choices = append(choices, categoryChoice{value: c.Name, label: fmt.Sprintf("%s(%d)", c.Name, c.Count)})
		for _, sub := range c.Subcategories {
			choices = append(choices, categoryChoice{value: sub.Name, label: fmt.Sprintf("%s(%d)", sub.Name, sub.Count), depth: 1})
		}
	}
	return choices
}

func nextOf(cycle []string, current string) string {
	for i, v := range cycle {
		if v == current {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}
