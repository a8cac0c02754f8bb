package directory

// EventType names the kind of change carried by an Event.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	// EventReload tells listeners the backing store changed outside this
	// process and should be re-read.
	EventReload EventType = "reload"
)

// Event describes one change to the directory.
type Event struct {
	Type     EventType `json:"type"`
	Entry    *Record   `json:"entry,omitempty"`
	Previous *Record   `json:"previous,omitempty"`
}

type nopPublisher struct{}

func (nopPublisher) Publish(Event) {}
