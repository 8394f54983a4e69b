package graph

import (
	"errors"
	"fmt"
)

// ErrInvariant marks a desynchronization with the server's event stream.
// Such errors are fatal for the session that observed them.
var ErrInvariant = errors.New("graph: invariant violation")

// Model is the in-memory view of the live graph. It is not safe for
// concurrent use; a single control goroutine owns it.
type Model struct {
	ports     map[PortRef]Port
	links     map[LinkKey][]Link
	linksByID map[LinkRef]LinkKey
}

func NewModel() *Model {
	return &Model{
		ports:     make(map[PortRef]Port),
		links:     make(map[LinkKey][]Link),
		linksByID: make(map[LinkRef]LinkKey),
	}
}

// Apply routes one registry event to ApplyAdd or ApplyRemove.
func (m *Model) Apply(ev Event) error {
	switch ev.Kind {
	case EventAdd:
		return m.ApplyAdd(ev.ID, ev.Props)
	case EventRemove:
		m.ApplyRemove(ev.ID)
		return nil
	default:
		return fmt.Errorf("graph: unknown event kind %d", int(ev.Kind))
	}
}

// ApplyAdd records a port or link described by props. Objects of any other
// shape are ignored.
func (m *Model) ApplyAdd(id ObjectID, props map[string]string) error {
	if port, ok, err := portFromProps(props); err != nil {
		return fmt.Errorf("%w (object %s)", err, id)
	} else if ok {
		ref := PortRefOf(id)
		if _, exists := m.ports[ref]; exists {
			return fmt.Errorf("%w: duplicate port object %s", ErrInvariant, id)
		}
		m.ports[ref] = port
		return nil
	}

	link, ok := linkFromProps(props)
	if !ok {
		return nil
	}
	ref := LinkRefOf(id)
	if _, exists := m.linksByID[ref]; exists {
		return fmt.Errorf("%w: duplicate link object %s", ErrInvariant, id)
	}
	key := link.Key()
	m.links[key] = append(m.links[key], link)
	m.linksByID[ref] = key
	return nil
}

// ApplyRemove drops id from both tables. Unknown ids are not an error.
// Removing a link id drops its whole endpoint bucket.
func (m *Model) ApplyRemove(id ObjectID) {
	delete(m.ports, PortRefOf(id))
	ref := LinkRefOf(id)
	if key, ok := m.linksByID[ref]; ok {
		delete(m.linksByID, ref)
		delete(m.links, key)
	}
}

func (m *Model) Port(ref PortRef) (Port, bool) {
	port, ok := m.ports[ref]
	return port, ok
}

// MustPort looks up a port the caller already knows to exist; a miss is an
// invariant violation.
func (m *Model) MustPort(ref PortRef) (Port, error) {
	port, ok := m.ports[ref]
	if !ok {
		return Port{}, fmt.Errorf("%w: port %s referenced but not in port table", ErrInvariant, ref)
	}
	return port, nil
}

func (m *Model) HasLink(key LinkKey) bool {
	_, ok := m.links[key]
	return ok
}

// Links returns the bucket for key in insertion order.
func (m *Model) Links(key LinkKey) []Link {
	return m.links[key]
}

// RangePorts calls fn for every port in unspecified order.
func (m *Model) RangePorts(fn func(PortRef, Port)) {
	for ref, port := range m.ports {
		fn(ref, port)
	}
}

// RangeLinks calls fn for every endpoint bucket in unspecified order.
func (m *Model) RangeLinks(fn func(LinkKey, []Link)) {
	for key, bucket := range m.links {
		fn(key, bucket)
	}
}

// Len reports the number of ports and link buckets.
func (m *Model) Len() (ports, links int) {
	return len(m.ports), len(m.links)
}

func portFromProps(props map[string]string) (Port, bool, error) {
	name, ok := props[PropPortAlias]
	if !ok {
		name, ok = props[PropPortName]
	}
	node, hasNode := props[PropNodeID]
	id, hasID := props[PropPortID]
	rawDir, hasDir := props[PropPortDirection]
	if !ok || !hasNode || !hasID || !hasDir {
		return Port{}, false, nil
	}
	dir, err := ParseDirection(rawDir)
	if err != nil {
		return Port{}, false, err
	}
	return Port{
		Node:      NodeID(node),
		Name:      PortName(name),
		ID:        PortID(id),
		Direction: dir,
	}, true, nil
}

func linkFromProps(props map[string]string) (Link, bool) {
	outPort, ok1 := props[PropLinkOutputPort]
	outNode, ok2 := props[PropLinkOutputNode]
	inPort, ok3 := props[PropLinkInputPort]
	inNode, ok4 := props[PropLinkInputNode]
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return Link{}, false
	}
	return Link{
		InputNode:  NodeID(inNode),
		InputPort:  PortRefOf(ObjectID(inPort)).Input(),
		OutputNode: NodeID(outNode),
		OutputPort: PortRefOf(ObjectID(outPort)).Output(),
	}, true
}
