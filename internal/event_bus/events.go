package event_bus

const (
	// RecordChangedEvent is published after every state mutation that must be persisted.
	RecordChangedEvent EventType = "state.record.changed"
	// RemoteEventsRefreshedEvent is published after the remote calendars have been fetched.
	RemoteEventsRefreshedEvent EventType = "remote.events.refreshed"
)

// RecordChanged carries the new serialized value of one persisted record.
type RecordChanged struct {
	Key   string
	Value []byte
}

// RemoteEventsRefreshed reports the outcome of a remote calendar refresh.
type RemoteEventsRefreshed struct {
	Accounts int
	Events   int
	Failed   int
}
