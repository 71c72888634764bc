package app

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/nateberkopec/jobalert/internal/gateway"
	"github.com/nateberkopec/jobalert/internal/notifier"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

func TestViewSnapshot(t *testing.T) {
	m := newTestModel(t, &stubClient{watermark: 7, hasWatermark: true})
	m = resize(m, 110, 24)

	jobID := int64(12)
	m.Update(clientEventMsg{Event: notifier.Event{Kind: notifier.EventStateChanged, State: notifier.StatePolling}})
	m.now = func() time.Time { return fixedNow.Add(-2 * time.Minute) }
	m.Update(displayed(gateway.Item{
		ID:       4,
		Title:    "New job posted",
		Body:     "Acme is hiring a platform engineer",
		Category: gateway.CategoryNewJob,
		Company:  "Acme",
	}))
	m.now = func() time.Time { return fixedNow }
	m.Update(displayed(gateway.Item{
		ID:       7,
		Title:    "Deadline tomorrow",
		Body:     "Globex application closes Friday",
		Category: gateway.CategoryCritical,
		JobID:    &jobID,
		Company:  "Globex",
	}))
	m.Update(clientEventMsg{Event: notifier.Event{Kind: notifier.EventPolled, State: notifier.StatePolling, Fresh: 2, UnreadCount: 3}})
	m.status = statusMessage{}

	snaps.MatchSnapshot(t, m.View())
}

func TestViewSnapshotPrompt(t *testing.T) {
	m := newTestModel(t, &stubClient{})
	m = resize(m, 110, 16)

	m.Update(clientEventMsg{Event: notifier.Event{Kind: notifier.EventPromptShown, State: notifier.StatePromptShown}})

	snaps.MatchSnapshot(t, m.View())
}

type stubClient struct {
	mu           sync.Mutex
	subscribers  []notifier.Subscriber
	watermark    int64
	hasWatermark bool

	inits     int
	requests  int
	starts    int
	stops     int
	polls     int
	manual    []manualCall
	requestFn func() error
	manualErr error
}

type manualCall struct {
	category gateway.Category
	title    string
	body     string
}

func (s *stubClient) Subscribe(fn notifier.Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *stubClient) Init(context.Context) notifier.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inits++
	return notifier.StatePromptShown
}

func (s *stubClient) RequestPermission(context.Context) error {
	s.mu.Lock()
	s.requests++
	fn := s.requestFn
	s.mu.Unlock()
	if fn != nil {
		return fn()
	}
	return nil
}

func (s *stubClient) StartPolling(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	return nil
}

func (s *stubClient) StopPolling() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *stubClient) PollOnce(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	return nil
}

func (s *stubClient) TriggerManual(_ context.Context, category gateway.Category, title, body string, _ *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manual = append(s.manual, manualCall{category: category, title: title, body: body})
	return s.manualErr
}

func (s *stubClient) Watermark() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermark, s.hasWatermark
}

func newTestModel(t *testing.T, client *stubClient) *Model {
	t.Helper()
	return New(Config{
		Client:      client,
		Link:        "http://localhost:5000/jobs",
		BellEnabled: true,
		Open:        func(string) error { return nil },
		now:         func() time.Time { return fixedNow },
	})
}

func resize(m *Model, width, height int) *Model {
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated.(*Model)
}

func displayed(item gateway.Item) clientEventMsg {
	return clientEventMsg{Event: notifier.Event{Kind: notifier.EventDisplayed, State: notifier.StatePolling, Item: item}}
}
