package core

// Tracked is implemented by every entity that emits change events.
type Tracked interface {
	ID() string
	RegisterOnUpdate(l Listener)
}

// Event describes a single attribute change. Value is the new value, or the
// owning collection when the event was re-emitted by a parent.
type Event struct {
	Source Tracked
	Field  string
	Value  any
}

// SourceID returns the id of the entity that emitted the event.
func (e Event) SourceID() string {
	if e.Source == nil {
		return ""
	}
	return e.Source.ID()
}

// Listener is invoked synchronously after the change has been applied.
type Listener func(Event)

// Observable keeps an ordered listener list. It is embedded by entities; the
// zero value is ready to use.
type Observable struct {
	listeners []Listener
}

// RegisterOnUpdate appends l. Listeners run in registration order and live as
// long as the entity.
func (o *Observable) RegisterOnUpdate(l Listener) {
	if l == nil {
		return
	}
	o.listeners = append(o.listeners, l)
}

func (o *Observable) notify(source Tracked, field string, value any) {
	ev := Event{Source: source, Field: field, Value: value}
	for _, l := range o.listeners {
		l(ev)
	}
}
