package network

import "sync"

// Trigger identifies the event that woke the sync engine.
type Trigger string

const (
	// TriggerOnline fires when connectivity transitions from offline to online.
	TriggerOnline Trigger = "network_online"
	// TriggerForeground fires when the embedding application returns to the foreground.
	TriggerForeground Trigger = "app_foreground"
	// TriggerManual fires for explicit user-requested syncs.
	TriggerManual Trigger = "manual"
	// TriggerPoll fires on the daemon's periodic interval.
	TriggerPoll Trigger = "poll"
)

// Observer tracks connectivity and foreground transitions reported by the
// embedding platform and fans them out to subscribers. Subscribers run
// synchronously on the reporting goroutine; they are expected to hand off
// quickly (the sync engine coalesces overlapping triggers itself).
type Observer struct {
	mu     sync.Mutex
	online bool
	subs   []func(Trigger)
}

// NewObserver returns an observer that assumes connectivity until told
// otherwise, matching the platform listener that reports shortly after start.
func NewObserver() *Observer {
	return &Observer{online: true}
}

// Online reports the last known connectivity state.
func (o *Observer) Online() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

// SetOnline records a connectivity transition. An offline-to-online edge
// notifies subscribers; repeated reports of the same state do not.
func (o *Observer) SetOnline(online bool) {
	o.mu.Lock()
	wasOnline := o.online
	o.online = online
	subs := o.subscribers()
	o.mu.Unlock()

	if online && !wasOnline {
		for _, sub := range subs {
			sub(TriggerOnline)
		}
	}
}

// Foreground records an application foreground transition and notifies
// subscribers regardless of connectivity; the engine checks connectivity
// before starting a run.
func (o *Observer) Foreground() {
	o.mu.Lock()
	subs := o.subscribers()
	o.mu.Unlock()

	for _, sub := range subs {
		sub(TriggerForeground)
	}
}

// Subscribe registers a callback for sync triggers.
func (o *Observer) Subscribe(fn func(Trigger)) {
	if fn == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subs = append(o.subs, fn)
}

// subscribers returns a snapshot; callers must hold o.mu.
func (o *Observer) subscribers() []func(Trigger) {
	subs := make([]func(Trigger), len(o.subs))
	copy(subs, o.subs)
	return subs
}
