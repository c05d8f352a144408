package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"steam-soundboard/backend/internal/models"
	"steam-soundboard/backend/pkg/logger"
)

func TestNotifySoundsChangedPushesToSession(t *testing.T) {
	reg := NewRegistry()
	lib := &fakeLibrary{
		entries: map[string][]models.SoundListEntry{
			"765611": {{ID: 1, Name: "Alert", Duration: 3.0}},
		},
	}
	log := logger.New(logger.Config{Level: "error"})
	notifier := NewNotifier(reg, lib, log, nil)

	session := &fakeSession{}
	reg.Register("765611", session)

	notifier.NotifySoundsChanged("765611")

	session.mu.Lock()
	defer session.mu.Unlock()
	require.Len(t, session.sent, 1)
	msg, ok := session.sent[0].(SoundsListMessage)
	require.True(t, ok)
	assert.Equal(t, TypeSoundsUpdated, msg.Type)
	require.Len(t, msg.Sounds, 1)
	assert.Equal(t, "Alert", msg.Sounds[0].Name)
}

func TestNotifySoundsChangedNoSession(t *testing.T) {
	reg := NewRegistry()
	lib := &fakeLibrary{entries: map[string][]models.SoundListEntry{}}
	log := logger.New(logger.Config{Level: "error"})
	notifier := NewNotifier(reg, lib, log, nil)

	// Nothing connected for the identity; must be a silent no-op
	notifier.NotifySoundsChanged("765611")
}

func TestNotifySoundsChangedEmptyCatalog(t *testing.T) {
	reg := NewRegistry()
	lib := &fakeLibrary{entries: map[string][]models.SoundListEntry{}}
	log := logger.New(logger.Config{Level: "error"})
	notifier := NewNotifier(reg, lib, log, nil)

	session := &fakeSession{}
	reg.Register("765611", session)

	notifier.NotifySoundsChanged("765611")

	session.mu.Lock()
	defer session.mu.Unlock()
	require.Len(t, session.sent, 1)
	msg := session.sent[0].(SoundsListMessage)
	// An emptied catalog pushes an empty list, not null
	assert.NotNil(t, msg.Sounds)
	assert.Empty(t, msg.Sounds)
}
