package attr

import (
	"fmt"

	"github.com/google/uuid"
)

// CharDecl declares one characteristic of a service.
type CharDecl struct {
	Name    string
	UUID    uuid.UUID
	Kind    Kind
	Perm    Perm
	Default []byte
}

// ServiceDecl declares a primary service and its characteristics.
type ServiceDecl struct {
	Name  string
	UUID  uuid.UUID
	Chars []CharDecl
}

// A Service is a primary service with its assigned handle range.
type Service struct {
	Name  string
	UUID  uuid.UUID
	Start Handle // service declaration
	End   Handle // last handle owned by the service
	Chars []*Entry
}

// Table is the attribute table. It is built once and its handles never change;
// only the entries' values are mutable.
type Table struct {
	services []*Service
	entries  []*Entry
	byHandle map[Handle]*Entry
	byName   map[string]*Entry
	last     Handle
}

// Build assigns handles to the declared services in order, starting at 1.
// Each service takes one handle for its declaration; each characteristic takes
// one for its declaration and one for its value, plus one for the client
// configuration descriptor when it can notify.
func Build(decls ...ServiceDecl) (*Table, error) {
	t := &Table{
		byHandle: make(map[Handle]*Entry),
		byName:   make(map[string]*Entry),
	}
	n := Handle(1)
	for _, sd := range decls {
		svc := &Service{Name: sd.Name, UUID: sd.UUID, Start: n}
		seen := make(map[uuid.UUID]bool, len(sd.Chars))
		for _, cd := range sd.Chars {
			if seen[cd.UUID] {
				return nil, fmt.Errorf("attr: service %s already contains a characteristic with uuid %s", sd.Name, cd.UUID)
			}
			seen[cd.UUID] = true
			if _, dup := t.byName[cd.Name]; dup {
				return nil, fmt.Errorf("attr: duplicate characteristic name %q", cd.Name)
			}
			if cd.Perm == 0 {
				return nil, fmt.Errorf("attr: characteristic %s has no access rights", cd.Name)
			}
			if err := cd.Kind.Validate(cd.Default); err != nil {
				return nil, fmt.Errorf("attr: default for %s: %w", cd.Name, err)
			}

			n++ // characteristic declaration
			n++ // value
			e := &Entry{
				Name:   cd.Name,
				UUID:   cd.UUID,
				Handle: n,
				Kind:   cd.Kind,
				Perm:   cd.Perm,
				value:  append([]byte(nil), cd.Default...),
			}
			if e.Notifiable() {
				n++ // client characteristic configuration
			}
			svc.Chars = append(svc.Chars, e)
			t.entries = append(t.entries, e)
			t.byHandle[e.Handle] = e
			t.byName[e.Name] = e
		}
		svc.End = n
		t.services = append(t.services, svc)
		n++
	}
	t.last = n - 1
	return t, nil
}

// Lookup returns the entry whose value lives at handle h.
func (t *Table) Lookup(h Handle) (*Entry, bool) {
	e, ok := t.byHandle[h]
	return e, ok
}

// ByName returns the entry declared under name, or nil.
func (t *Table) ByName(name string) *Entry { return t.byName[name] }

// Entries returns all entries in handle order.
func (t *Table) Entries() []*Entry { return t.entries }

// Services returns all services in handle order.
func (t *Table) Services() []*Service { return t.services }

// Last returns the highest assigned handle.
func (t *Table) Last() Handle { return t.last }
