package graph

import "fmt"

// Property keys read from server object descriptions.
const (
	PropPortName      = "port.name"
	PropPortAlias     = "port.alias"
	PropNodeID        = "node.id"
	PropPortID        = "port.id"
	PropPortDirection = "port.direction"

	PropLinkOutputPort = "link.output.port"
	PropLinkOutputNode = "link.output.node"
	PropLinkInputPort  = "link.input.port"
	PropLinkInputNode  = "link.input.node"
)

// PortName is the logical name desired links are matched by.
type PortName string

type NodeID string

// PortID is the port's id within its node, as reported by the server.
type PortID string

type Direction int

const (
	DirectionIn Direction = iota + 1
	DirectionOut
)

func ParseDirection(raw string) (Direction, error) {
	switch raw {
	case "in":
		return DirectionIn, nil
	case "out":
		return DirectionOut, nil
	default:
		return 0, fmt.Errorf("%w: unknown port direction %q", ErrInvariant, raw)
	}
}

func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

type Port struct {
	Node      NodeID
	Name      PortName
	ID        PortID
	Direction Direction
}

type Link struct {
	InputNode  NodeID
	InputPort  InputRef
	OutputNode NodeID
	OutputPort OutputRef
}

func (l Link) Key() LinkKey {
	return NewLinkKey(l.OutputPort, l.InputPort)
}

type EventKind int

const (
	EventAdd EventKind = iota + 1
	EventRemove
)

func (k EventKind) String() string {
	switch k {
	case EventAdd:
		return "add"
	case EventRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Event is one registry notification from the media server.
type Event struct {
	Kind  EventKind
	ID    ObjectID
	Props map[string]string
}

func Added(id ObjectID, props map[string]string) Event {
	return Event{Kind: EventAdd, ID: id, Props: props}
}

func Removed(id ObjectID) Event {
	return Event{Kind: EventRemove, ID: id}
}
