package views

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// MemorySink is an in-process MessageSink. It backs the service when no
// chat platform is configured and doubles as a test fake.
type MemorySink struct {
	mu       sync.Mutex
	order    []Handle
	messages map[Handle]RenderedView
	calls    int
	failures map[string]error
}

func NewMemorySink() *MemorySink {
	return &MemorySink{messages: map[Handle]RenderedView{}, failures: map[string]error{}}
}

// FailNext makes the next call of op ("create", "update", "delete", "list") return err.
func (m *MemorySink) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = err
}

func (m *MemorySink) takeFailure(op string) error {
	m.calls++
	err := m.failures[op]
	delete(m.failures, op)
	return err
}

func (m *MemorySink) Create(_ context.Context, view RenderedView) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure("create"); err != nil {
		return "", err
	}
	h := Handle(uuid.NewString())
	m.order = append(m.order, h)
	m.messages[h] = view
	return h, nil
}

func (m *MemorySink) Update(_ context.Context, handle Handle, view RenderedView) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure("update"); err != nil {
		return err
	}
	if _, ok := m.messages[handle]; !ok {
		return fmt.Errorf("unknown message %s", handle)
	}
	m.messages[handle] = view
	return nil
}

func (m *MemorySink) Delete(_ context.Context, handle Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure("delete"); err != nil {
		return err
	}
	if _, ok := m.messages[handle]; !ok {
		return fmt.Errorf("unknown message %s", handle)
	}
	delete(m.messages, handle)
	m.order = slices.DeleteFunc(m.order, func(h Handle) bool { return h == handle })
	return nil
}

func (m *MemorySink) ListExisting(_ context.Context) ([]Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.takeFailure("list"); err != nil {
		return nil, err
	}
	return slices.Clone(m.order), nil
}

// Views returns the displayed messages in order.
func (m *MemorySink) Views() []RenderedView {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RenderedView, 0, len(m.order))
	for _, h := range m.order {
		out = append(out, m.messages[h])
	}
	return out
}

// Calls counts sink calls, failed ones included.
func (m *MemorySink) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MemorySinks returns a factory handing out one MemorySink per channel.
func MemorySinks() SinkFactory {
	var mu sync.Mutex
	sinks := map[string]*MemorySink{}
	return func(channelID string) MessageSink {
		mu.Lock()
		defer mu.Unlock()
		s, ok := sinks[channelID]
		if !ok {
			s = NewMemorySink()
			sinks[channelID] = s
		}
		return s
	}
}
