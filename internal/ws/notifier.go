package ws

import (
	"context"

	"steam-soundboard/backend/pkg/logger"
	"steam-soundboard/backend/pkg/observability"
)

// Notifier pushes catalog updates to connected plugin sessions after a
// sound is created, renamed or deleted. A missing session is a no-op:
// the plugin may simply not be connected.
type Notifier struct {
	registry *Registry
	library  Library
	log      *logger.Logger
	metrics  *observability.Metrics
}

// NewNotifier creates a push notifier over the registry
func NewNotifier(registry *Registry, library Library, log *logger.Logger, metrics *observability.Metrics) *Notifier {
	return &Notifier{
		registry: registry,
		library:  library,
		log:      log,
		metrics:  metrics,
	}
}

// NotifySoundsChanged re-reads the identity's catalog and emits
// sounds_updated on its live session, if any. Failures are logged,
// never propagated: the mutation this follows is already committed.
func (n *Notifier) NotifySoundsChanged(steamID string) {
	session, ok := n.registry.Lookup(steamID)
	if !ok {
		return
	}

	entries, err := n.library.ListEntries(context.Background(), steamID)
	if err != nil {
		n.log.LogError(err, "failed to load sounds for push", "steam_id", steamID)
		return
	}

	session.Send(soundsList(TypeSoundsUpdated, entries))

	if n.metrics != nil {
		n.metrics.PushNotifications.Inc()
	}
	n.log.Debug("pushed sounds_updated", "steam_id", steamID, "count", len(entries))
}
