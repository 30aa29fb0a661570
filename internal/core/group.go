package core

import "fmt"

// EntryGroup is a named category of entries, e.g. "Housing".
type EntryGroup struct {
	Observable
	id      string
	name    string
	entries []*Entry
	wired   map[*Entry]bool
}

func NewEntryGroup(name string) *EntryGroup {
	return RestoreEntryGroup(NewID(), name)
}

// RestoreEntryGroup rebuilds an empty group with a known id.
func RestoreEntryGroup(id, name string) *EntryGroup {
	if id == "" {
		id = NewID()
	}
	return &EntryGroup{id: id, name: name}
}

func (g *EntryGroup) ID() string   { return g.id }
func (g *EntryGroup) Name() string { return g.name }

// Entries returns the entries in insertion order. The slice is a copy.
func (g *EntryGroup) Entries() []*Entry {
	return append([]*Entry(nil), g.entries...)
}

func (g *EntryGroup) Len() int { return len(g.entries) }

func (g *EntryGroup) SetName(name string) {
	g.name = name
	g.notify(g, FieldName, name)
}

// Set converts value and assigns it to field. Only the name is editable.
func (g *EntryGroup) Set(field string, value any) error {
	if field != FieldName {
		return fmt.Errorf("%w: group.%s", ErrUnknownField, field)
	}
	s, err := toString(field, value)
	if err != nil {
		return err
	}
	g.SetName(s)
	return nil
}

// AddEntry appends e and re-emits its changes under "entries".
func (g *EntryGroup) AddEntry(e *Entry) {
	g.entries = append(g.entries, e)
	if !g.wired[e] {
		if g.wired == nil {
			g.wired = make(map[*Entry]bool)
		}
		g.wired[e] = true
		e.RegisterOnUpdate(func(Event) {
			if g.owns(e) {
				g.notify(g, FieldEntries, g.Entries())
			}
		})
	}
	g.notify(g, FieldEntries, g.Entries())
}

// DeleteEntry removes the entry with the given id and reports whether it was present.
func (g *EntryGroup) DeleteEntry(id string) bool {
	i := g.indexOf(id)
	if i < 0 {
		return false
	}
	g.entries = append(g.entries[:i:i], g.entries[i+1:]...)
	g.notify(g, FieldEntries, g.Entries())
	return true
}

// Entry looks up an entry by id.
func (g *EntryGroup) Entry(id string) (*Entry, bool) {
	if i := g.indexOf(id); i >= 0 {
		return g.entries[i], true
	}
	return nil, false
}

// TotalMonthly sums the monthly cost of every entry.
func (g *EntryGroup) TotalMonthly() float64 {
	var total float64
	for _, e := range g.entries {
		total += e.Monthly()
	}
	return total
}

func (g *EntryGroup) owns(e *Entry) bool {
	for _, x := range g.entries {
		if x == e {
			return true
		}
	}
	return false
}

func (g *EntryGroup) indexOf(id string) int {
	for i, e := range g.entries {
		if e.id == id {
			return i
		}
	}
	return -1
}
