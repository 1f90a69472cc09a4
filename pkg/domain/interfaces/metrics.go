package interfaces

// Metrics records processing counters
type Metrics interface {
	EventReceived(kind string)
	EventIgnored(kind, reason string)
	ActionExecuted(name, scope string)
	ActionFailed(name, scope string)
}
