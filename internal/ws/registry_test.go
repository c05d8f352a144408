package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	mu         sync.Mutex
	kicked     bool
	kickReason string
	sent       []any
}

func (f *fakeSession) Send(message any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, message)
}

func (f *fakeSession) Kick(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicked = true
	f.kickReason = reason
}

func (f *fakeSession) wasKicked() (bool, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.kicked, f.kickReason
}

func TestRegisterAndLookup(t *testing.T) {
	reg := NewRegistry()
	s := &fakeSession{}

	reg.Register("765611", s)

	got, ok := reg.Lookup("765611")
	require.True(t, ok)
	assert.Same(t, Session(s), got)
	assert.Equal(t, 1, reg.Count())

	_, ok = reg.Lookup("other")
	assert.False(t, ok)
}

func TestRegisterDisplacesPrevious(t *testing.T) {
	reg := NewRegistry()
	first := &fakeSession{}
	second := &fakeSession{}

	reg.Register("765611", first)
	reg.Register("765611", second)

	kicked, reason := first.wasKicked()
	assert.True(t, kicked)
	assert.Equal(t, DisplacementReason, reason)

	kicked, _ = second.wasKicked()
	assert.False(t, kicked)

	got, ok := reg.Lookup("765611")
	require.True(t, ok)
	assert.Same(t, Session(second), got)
	assert.Equal(t, 1, reg.Count())
}

func TestReregisterSameSessionDoesNotKick(t *testing.T) {
	reg := NewRegistry()
	s := &fakeSession{}

	reg.Register("765611", s)
	reg.Register("765611", s)

	kicked, _ := s.wasKicked()
	assert.False(t, kicked)
	assert.Equal(t, 1, reg.Count())
}

func TestUnregisterIfCurrent(t *testing.T) {
	reg := NewRegistry()
	s := &fakeSession{}
	reg.Register("765611", s)

	reg.UnregisterIfCurrent("765611", s)

	_, ok := reg.Lookup("765611")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Count())

	// Second call is a no-op
	reg.UnregisterIfCurrent("765611", s)
	assert.Equal(t, 0, reg.Count())
}

func TestStaleUnregisterDoesNotClobberNewer(t *testing.T) {
	reg := NewRegistry()
	old := &fakeSession{}
	current := &fakeSession{}

	reg.Register("765611", old)
	reg.Register("765611", current)

	// The displaced session tears down after the replacement registered
	reg.UnregisterIfCurrent("765611", old)

	got, ok := reg.Lookup("765611")
	require.True(t, ok)
	assert.Same(t, Session(current), got)
}

func TestConcurrentRegisterLeavesOneCurrent(t *testing.T) {
	reg := NewRegistry()
	const n = 50

	sessions := make([]*fakeSession, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		sessions[i] = &fakeSession{}
		wg.Add(1)
		go func(s *fakeSession) {
			defer wg.Done()
			reg.Register("765611", s)
		}(sessions[i])
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Count())

	winner, ok := reg.Lookup("765611")
	require.True(t, ok)

	kickedCount := 0
	for _, s := range sessions {
		if kicked, _ := s.wasKicked(); kicked {
			kickedCount++
			assert.NotSame(t, winner, Session(s))
		}
	}
	assert.Equal(t, n-1, kickedCount)
}
