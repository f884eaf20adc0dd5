package reclear

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/abgdnv/gomarket/pkg/messaging"
	"github.com/stretchr/testify/mock"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var errClear = errors.New("db down")

// flakyClearer fails the first failures calls and succeeds afterwards.
type flakyClearer struct {
	mu       sync.Mutex
	failures int
	calls    int
	cleared  []int64
}

func (c *flakyClearer) Clear(_ context.Context, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.failures {
		return errClear
	}
	c.cleared = append(c.cleared, userID)
	return nil
}

func (c *flakyClearer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type mockAckableMsg struct {
	mock.Mock
}

func (m *mockAckableMsg) Data() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *mockAckableMsg) Subject() string {
	return messaging.CartsClearPendingSubject
}

func (m *mockAckableMsg) Ack() error {
	args := m.Called()
	return args.Error(0)
}

func (m *mockAckableMsg) NakWithDelay(delay time.Duration) error {
	args := m.Called(delay)
	return args.Error(0)
}

func (m *mockAckableMsg) Term() error {
	args := m.Called()
	return args.Error(0)
}

type mockPublisher struct {
	mu     sync.Mutex
	err    error
	events []messaging.Event
}

func (m *mockPublisher) Publish(_ context.Context, event messaging.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type recordingScheduler struct {
	users []int64
}

func (r *recordingScheduler) Schedule(_ context.Context, userID, _ int64) error {
	r.users = append(r.users, userID)
	return nil
}
