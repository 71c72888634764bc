package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/nateberkopec/jobalert/internal/gateway"
	"github.com/nateberkopec/jobalert/internal/notifier"
	"github.com/nateberkopec/jobalert/internal/persistence"
	"github.com/nateberkopec/jobalert/internal/platform"
	"github.com/nateberkopec/jobalert/internal/watch"
)

// alertClient captures the subset of the notification client the page needs.
// This makes it easy to stub in tests without a platform or a server.
type alertClient interface {
	Subscribe(fn notifier.Subscriber)
	Init(ctx context.Context) notifier.State
	RequestPermission(ctx context.Context) error
	StartPolling(ctx context.Context) error
	StopPolling()
	PollOnce(ctx context.Context) error
	TriggerManual(ctx context.Context, category gateway.Category, title, body string, jobID *int64) error
	Watermark() (int64, bool)
}

type focusArea int

const (
	focusFeed focusArea = iota
	focusInput
)

type statusKind int

const (
	statusNeutral statusKind = iota
	statusError
	statusSuccess
)

type statusMessage struct {
	text    string
	kind    statusKind
	expires time.Time
}

type area struct {
	top    int
	height int
}

// Config wires external dependencies for the app.
type Config struct {
	Client  alertClient
	Consent *Consent

	// Marker marks selected notifications read on the server.
	Marker      notifier.ReadMarker
	Store       *persistence.Store
	Link        string
	Open        platform.Opener
	BellEnabled bool
	Logger      *zerolog.Logger

	now func() time.Time
}

// Model implements the Bubble Tea program. It owns the client's lifecycle:
// Init runs when the program starts and StopPolling when it quits.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	client  alertClient
	consent *Consent
	marker  notifier.ReadMarker
	store   *persistence.Store
	link    string
	open    platform.Opener
	logger  zerolog.Logger
	now     func() time.Time
	events  *eventBridge

	feed *watch.Feed

	state        notifier.State
	promptShown  bool
	deniedNotice bool
	unread       int
	lastPoll     time.Time

	focus         focusArea
	showDismissed bool
	bellEnabled   bool

	selectedIndex int
	scrollOffset  int
	width         int
	height        int

	input textinput.Model
	spin  spinner.Model

	status  statusMessage
	pending bool

	listArea  area
	inputArea area

	history      []string
	historyIndex int
	tempInput    string
}

// New creates a Bubble Tea model for the notification page.
func New(cfg Config) *Model {
	ti := textinput.New()
	ti.Placeholder = "Send yourself an alert: [category:] title | message"
	ti.Prompt = ""
	ti.CharLimit = 256
	ti.Blur()

	sp := spinner.New(spinner.WithSpinner(spinner.Ellipsis))

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	open := cfg.Open
	if open == nil {
		open = platform.OpenURL
	}

	now := cfg.now
	if now == nil {
		now = time.Now
	}

	consent := cfg.Consent
	if consent == nil {
		consent = NewConsent()
	}

	history := []string{}
	if cfg.Store != nil {
		loaded, err := cfg.Store.LoadHistory()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load compose history")
		} else {
			history = loaded
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		ctx:          ctx,
		cancel:       cancel,
		client:       cfg.Client,
		consent:      consent,
		marker:       cfg.Marker,
		store:        cfg.Store,
		link:         cfg.Link,
		open:         open,
		logger:       logger,
		now:          now,
		events:       newEventBridge(),
		feed:         watch.NewFeed(),
		bellEnabled:  cfg.BellEnabled,
		input:        ti,
		spin:         sp,
		history:      history,
		historyIndex: len(history),
	}
	m.client.Subscribe(m.events.publish)
	return m
}

// Init satisfies the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	spinCmd := func() tea.Msg { return m.spin.Tick() }
	client, ctx := m.client, m.ctx
	initCmd := func() tea.Msg {
		client.Init(ctx)
		return nil
	}
	return tea.Batch(textinput.Blink, m.events.waitForEvent(), initCmd, spinCmd)
}

// Update drives the Bubble Tea state machine.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m.maybeExpireStatus()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.configureLayout()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	case clientEventMsg:
		cmd := m.absorbEvent(msg.Event)
		return m, tea.Batch(cmd, m.events.waitForEvent())
	case actionResultMsg:
		m.pending = false
		if msg.Err != nil {
			m.setStatus(msg.Err.Error(), statusError)
		} else if msg.Text != "" {
			m.setStatus(msg.Text, statusSuccess)
		}
		if msg.MarkedKey != 0 {
			m.feed.MarkRead(msg.MarkedKey)
		}
	case openErrMsg:
		m.setStatus(msg.Err.Error(), statusError)
	}

	if m.focus == focusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the TUI.
func (m *Model) View() string {
	return renderView(m)
}

func (m *Model) absorbEvent(event notifier.Event) tea.Cmd {
	switch event.Kind {
	case notifier.EventStateChanged:
		m.state = event.State
		if event.State.Granted() {
			m.promptShown = false
		}
	case notifier.EventPromptShown:
		m.state = event.State
		m.promptShown = true
		m.configureLayout()
	case notifier.EventDenied:
		m.state = event.State
		m.promptShown = false
		m.deniedNotice = true
		m.configureLayout()
	case notifier.EventDisplayed:
		if event.Err != nil {
			m.setStatus(fmt.Sprintf("Alert not shown: %v", event.Err), statusError)
			return nil
		}
		if event.Manual {
			m.feed.AddManual(event.Item, m.now())
		} else if !m.feed.Add(event.Item, m.now()) {
			return nil
		}
		m.selectedIndex = 0
		m.scrollOffset = 0
		if m.bellEnabled {
			return tea.Printf("\a")
		}
	case notifier.EventPollFailed:
		m.setStatus(fmt.Sprintf("Poll failed: %v", event.Err), statusError)
	case notifier.EventPolled:
		m.unread = event.UnreadCount
		m.lastPoll = m.now()
		if event.Fresh > 0 {
			m.setStatus(fmt.Sprintf("%d new notification(s)", event.Fresh), statusSuccess)
		}
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.MouseLeft:
		if m.listArea.contains(msg.Y) {
			row := msg.Y - m.listArea.top
			if row <= 0 {
				return m, nil
			}
			index := m.scrollOffset + row - 1
			if index >= 0 && index < len(m.feed.Visible(m.showDismissed)) {
				m.selectedIndex = index
				m.setFocus(focusFeed)
				m.ensureSelectionBounds()
			}
		} else if m.inputArea.contains(msg.Y) {
			m.setFocus(focusInput)
		}
	case tea.MouseWheelUp:
		m.moveSelection(-1)
	case tea.MouseWheelDown:
		m.moveSelection(1)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "ctrl+c", "ctrl+d":
		return m, m.quit()
	case "tab", "shift+tab":
		m.toggleFocus()
		if m.focus == focusInput {
			return m, nil
		}
	case "esc":
		m.setFocus(focusFeed)
	}

	if m.focus == focusInput {
		switch key {
		case "enter":
			return m.submitAlert()
		case "up":
			m.navigateHistoryUp()
			return m, nil
		case "down":
			m.navigateHistoryDown()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.promptShown {
		switch key {
		case "y":
			return m, m.answerPrompt(true)
		case "n":
			return m, m.answerPrompt(false)
		}
	}

	switch key {
	case "q":
		return m, m.quit()
	case "x":
		if m.deniedNotice {
			m.deniedNotice = false
			m.configureLayout()
		}
	case "j", "down":
		m.moveSelection(1)
	case "k", "up":
		m.moveSelection(-1)
	case "pgdown", "ctrl+f":
		m.moveSelection(m.dataRows())
	case "pgup", "ctrl+b":
		m.moveSelection(-m.dataRows())
	case "g", "home":
		m.selectedIndex = 0
		m.scrollOffset = 0
	case "G", "end":
		m.selectedIndex = max(0, len(m.feed.Visible(m.showDismissed))-1)
		m.ensureSelectionBounds()
	case "o", "enter":
		return m, m.openLink()
	case "p":
		return m, m.togglePolling()
	case "r":
		return m, m.pollNow()
	case "m":
		return m, m.markSelectedRead()
	case "d":
		if m.showDismissed {
			m.restoreSelected()
		} else {
			m.dismissSelected()
		}
	case "D":
		m.showDismissed = !m.showDismissed
		m.selectedIndex = 0
		m.scrollOffset = 0
		if m.showDismissed {
			m.setStatus("Viewing dismissed alerts", statusNeutral)
		} else {
			m.setStatus("Viewing recent alerts", statusNeutral)
		}
	case "b":
		m.bellEnabled = !m.bellEnabled
		if m.bellEnabled {
			m.setStatus("Bell enabled", statusSuccess)
		} else {
			m.setStatus("Bell muted", statusNeutral)
		}
	}

	return m, nil
}

// quit ends the polling session before the program exits.
func (m *Model) quit() tea.Cmd {
	m.client.StopPolling()
	m.cancel()
	m.events.close()
	if m.store != nil {
		if err := m.store.SaveHistory(m.history); err != nil {
			m.logger.Warn().Err(err).Msg("failed to save compose history")
		}
	}
	return tea.Quit
}

func (m *Model) answerPrompt(allow bool) tea.Cmd {
	m.promptShown = false
	m.configureLayout()
	m.consent.stage(allow)
	m.pending = true
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		if err := client.RequestPermission(ctx); err != nil {
			return actionResultMsg{Err: err}
		}
		if allow {
			return actionResultMsg{Text: "Desktop alerts enabled"}
		}
		return actionResultMsg{}
	}
}

func (m *Model) togglePolling() tea.Cmd {
	switch {
	case m.state == notifier.StatePolling:
		m.client.StopPolling()
		m.setStatus("Polling paused", statusNeutral)
		return nil
	case m.state.Granted():
		client, ctx := m.client, m.ctx
		return func() tea.Msg {
			if err := client.StartPolling(ctx); err != nil {
				return actionResultMsg{Err: err}
			}
			return actionResultMsg{Text: "Polling resumed"}
		}
	default:
		m.setStatus("Desktop alerts are not enabled", statusError)
		return nil
	}
}

func (m *Model) pollNow() tea.Cmd {
	if !m.state.Granted() {
		m.setStatus("Desktop alerts are not enabled", statusError)
		return nil
	}
	m.pending = true
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		if err := client.PollOnce(ctx); err != nil {
			return actionResultMsg{Err: err}
		}
		return actionResultMsg{}
	}
}

func (m *Model) submitAlert() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		m.setStatus("Enter a title, optionally followed by | and a message", statusNeutral)
		return m, nil
	}

	category, title, body := parseCompose(value)

	// Add to history (avoid duplicates of the most recent command)
	if len(m.history) == 0 || m.history[len(m.history)-1] != value {
		m.history = append(m.history, value)
	}
	m.historyIndex = len(m.history)
	m.tempInput = ""

	m.input.SetValue("")
	m.pending = true
	client, ctx := m.client, m.ctx
	return m, func() tea.Msg {
		err := client.TriggerManual(ctx, category, title, body, nil)
		if errors.Is(err, notifier.ErrNotGranted) {
			err = fmt.Errorf("desktop alerts are not enabled")
		}
		return actionResultMsg{Err: err}
	}
}

// parseCompose splits "[category:] title | message". An unknown category
// prefix is kept as part of the title.
func parseCompose(value string) (gateway.Category, string, string) {
	category := gateway.CategoryDefault
	if prefix, rest, ok := strings.Cut(value, ":"); ok {
		candidate := gateway.ParseCategory(prefix)
		if candidate != gateway.CategoryDefault || strings.EqualFold(strings.TrimSpace(prefix), string(gateway.CategoryDefault)) {
			category = candidate
			value = rest
		}
	}
	title, body, _ := strings.Cut(value, "|")
	return category, strings.TrimSpace(title), strings.TrimSpace(body)
}

func (m *Model) dismissSelected() {
	entry := m.selectedEntry()
	if entry == nil {
		return
	}
	m.feed.Dismiss(entry.Key())
	m.ensureSelectionBounds()
	m.setStatus(fmt.Sprintf("Dismissed %s", entryLabel(entry)), statusNeutral)
}

func (m *Model) restoreSelected() {
	entry := m.selectedEntry()
	if entry == nil {
		return
	}
	if m.feed.Restore(entry.Key()) {
		m.showDismissed = false
		m.selectedIndex = 0
		m.scrollOffset = 0
		m.setStatus(fmt.Sprintf("Restored %s", entryLabel(entry)), statusSuccess)
	}
}

func (m *Model) markSelectedRead() tea.Cmd {
	entry := m.selectedEntry()
	if entry == nil || entry.Read {
		return nil
	}
	key := entry.Key()
	if entry.Manual || m.marker == nil {
		m.feed.MarkRead(key)
		return nil
	}
	marker, ctx := m.marker, m.ctx
	label := entryLabel(entry)
	return func() tea.Msg {
		if err := marker.MarkRead(ctx, key); err != nil {
			return actionResultMsg{Err: fmt.Errorf("mark read: %w", err)}
		}
		return actionResultMsg{Text: fmt.Sprintf("Marked %s read", label), MarkedKey: key}
	}
}

func (m *Model) openLink() tea.Cmd {
	if m.link == "" {
		return nil
	}
	m.setStatus(fmt.Sprintf("Opening %s", m.link), statusNeutral)
	open, target := m.open, m.link
	return func() tea.Msg {
		if err := open(target); err != nil {
			return openErrMsg{Err: err}
		}
		return nil
	}
}

func (m *Model) selectedEntry() *watch.Entry {
	entries := m.feed.Visible(m.showDismissed)
	if len(entries) == 0 {
		return nil
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
	if m.selectedIndex >= len(entries) {
		m.selectedIndex = len(entries) - 1
	}
	return entries[m.selectedIndex]
}

func (m *Model) moveSelection(delta int) {
	entries := m.feed.Visible(m.showDismissed)
	if len(entries) == 0 {
		m.selectedIndex = 0
		m.scrollOffset = 0
		return
	}
	m.selectedIndex += delta
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
	if m.selectedIndex >= len(entries) {
		m.selectedIndex = len(entries) - 1
	}
	m.ensureSelectionBounds()
}

func (m *Model) ensureSelectionBounds() {
	dataRows := m.dataRows()
	if dataRows <= 0 {
		return
	}
	if m.selectedIndex < m.scrollOffset {
		m.scrollOffset = m.selectedIndex
	}
	if m.selectedIndex >= m.scrollOffset+dataRows {
		m.scrollOffset = m.selectedIndex - dataRows + 1
	}
	if m.scrollOffset < 0 {
		m.scrollOffset = 0
	}
	maxScroll := max(0, len(m.feed.Visible(m.showDismissed))-dataRows)
	if m.scrollOffset > maxScroll {
		m.scrollOffset = maxScroll
	}
}

func (m *Model) dataRows() int {
	rows := m.listArea.height - 1 // header consumes one row
	if rows < 1 {
		rows = 1
	}
	return rows
}

func (m *Model) toggleFocus() {
	if m.focus == focusFeed {
		m.setFocus(focusInput)
	} else {
		m.setFocus(focusFeed)
	}
}

func (m *Model) setFocus(area focusArea) {
	if m.focus == area {
		return
	}
	m.focus = area
	if area == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) navigateHistoryUp() {
	if len(m.history) == 0 {
		return
	}

	// Save current input if we're at the bottom
	if m.historyIndex == len(m.history) {
		m.tempInput = m.input.Value()
	}

	if m.historyIndex > 0 {
		m.historyIndex--
		m.input.SetValue(m.history[m.historyIndex])
		m.input.CursorEnd()
	}
}

func (m *Model) navigateHistoryDown() {
	if len(m.history) == 0 {
		return
	}

	if m.historyIndex < len(m.history) {
		m.historyIndex++
		if m.historyIndex == len(m.history) {
			// Back to current input
			m.input.SetValue(m.tempInput)
		} else {
			m.input.SetValue(m.history[m.historyIndex])
		}
		m.input.CursorEnd()
	}
}

func (m *Model) configureLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	const (
		headerHeight = 1
		helpHeight   = 1
		statusHeight = 1
		inputHeight  = 3
	)
	top := inputHeight + helpHeight + headerHeight + m.bannerHeight()
	listHeight := m.height - top - statusHeight
	if listHeight < 5 {
		listHeight = 5
	}
	m.inputArea = area{
		top:    0,
		height: inputHeight,
	}
	m.listArea = area{
		top:    top,
		height: listHeight,
	}
	m.input.Width = max(10, m.width-4)
	m.ensureSelectionBounds()
}

// bannerHeight is the number of rows taken by the prompt and denial notice.
func (m *Model) bannerHeight() int {
	if m.promptShown || m.deniedNotice {
		return 3
	}
	return 0
}

func (m *Model) setStatus(text string, kind statusKind) {
	if text == "" {
		m.status = statusMessage{}
		return
	}
	m.status = statusMessage{
		text:    text,
		kind:    kind,
		expires: m.now().Add(10 * time.Second),
	}
}

func (m *Model) maybeExpireStatus() {
	if m.status.text == "" {
		return
	}
	if m.now().After(m.status.expires) {
		m.status = statusMessage{}
	}
}

func (a area) contains(y int) bool {
	return y >= a.top && y < a.top+a.height
}

type actionResultMsg struct {
	Text      string
	Err       error
	MarkedKey int64
}

type openErrMsg struct {
	Err error
}

func entryLabel(entry *watch.Entry) string {
	if entry.Item.Company != "" {
		return fmt.Sprintf("%s • %s", entry.Item.Title, entry.Item.Company)
	}
	return entry.Item.Title
}
