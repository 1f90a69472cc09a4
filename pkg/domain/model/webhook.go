package model

import "time"

// Delivery is one repository event received from the outside world
type Delivery struct {
	ID         string    // X-Gerrit-Delivery header, or generated
	Source     string    // "webhook", "replay", ...
	ReceivedAt time.Time // Time when the event was received
	Event      Event     // Decoded event
}

// IsSupported checks whether the delivered event can take part in rule matching
func (d *Delivery) IsSupported() bool {
	if d.Event == nil {
		return false
	}
	return d.Event.Kind().RefScoped()
}
