package watch

import "fmt"

// Kind is the type of a filesystem event.
type Kind int

// Event kinds.
const (
	Modified Kind = iota + 1
	Created
	Deleted
	Moved
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case Modified:
		return "modified"
	case Created:
		return "created"
	case Deleted:
		return "deleted"
	case Moved:
		return "moved"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one normalized filesystem notification.
//
// Path is set for Modified, Created and Deleted. From and To are set for
// Moved; an empty To means the destination is outside the watched
// directory or unknown.
type Event struct {
	Kind Kind
	Path string
	From string
	To   string
}

// ModifiedEvent returns a Modified event for path.
func ModifiedEvent(path string) Event { return Event{Kind: Modified, Path: path} }

// CreatedEvent returns a Created event for path.
func CreatedEvent(path string) Event { return Event{Kind: Created, Path: path} }

// DeletedEvent returns a Deleted event for path.
func DeletedEvent(path string) Event { return Event{Kind: Deleted, Path: path} }

// MovedEvent returns a Moved event from one path to another.
func MovedEvent(from, to string) Event { return Event{Kind: Moved, From: from, To: to} }

// String formats the event for logs.
func (e Event) String() string {
	if e.Kind == Moved {
		to := e.To
		if to == "" {
			to = "(outside)"
		}
		return fmt.Sprintf("moved %s -> %s", e.From, to)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Path)
}

// subject returns the path the event is primarily about.
func (e Event) subject() string {
	if e.Kind == Moved {
		return e.From
	}
	return e.Path
}
