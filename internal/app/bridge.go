package app

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nateberkopec/jobalert/internal/notifier"
)

// eventBridge carries client events into the Bubble Tea loop. The client
// publishes from its own goroutines; the model drains one event per
// waitForEvent command and re-arms it.
type eventBridge struct {
	ch   chan notifier.Event
	done chan struct{}
	once sync.Once
}

func newEventBridge() *eventBridge {
	return &eventBridge{
		ch:   make(chan notifier.Event, 64),
		done: make(chan struct{}),
	}
}

func (b *eventBridge) publish(event notifier.Event) {
	select {
	case b.ch <- event:
	case <-b.done:
	}
}

func (b *eventBridge) close() {
	b.once.Do(func() { close(b.done) })
}

type clientEventMsg struct {
	Event notifier.Event
}

func (b *eventBridge) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case event := <-b.ch:
			return clientEventMsg{Event: event}
		case <-b.done:
			return nil
		}
	}
}

// ErrNoAnswer is returned by Consent.Ask when the prompt was not answered.
var ErrNoAnswer = errors.New("permission prompt not answered")

// Consent relays the answer given in the page's permission prompt to the
// platform. The model stages the answer before asking the client to request
// permission.
type Consent struct {
	mu     sync.Mutex
	answer *bool
}

func NewConsent() *Consent {
	return &Consent{}
}

// Ask returns the staged answer once. It satisfies platform.Consent.
func (c *Consent) Ask(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.answer == nil {
		return false, ErrNoAnswer
	}
	answer := *c.answer
	c.answer = nil
	return answer, nil
}

func (c *Consent) stage(answer bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answer = &answer
}
