package graph

// ObjectID is the server-assigned handle of any live graph object.
type ObjectID string

// PortRef identifies a port whose direction is not (yet) known. It is the key
// of the port table.
type PortRef struct {
	id ObjectID
}

// InputRef identifies a port known to be an input (link destination).
type InputRef struct {
	in ObjectID
}

// OutputRef identifies a port known to be an output (link source).
type OutputRef struct {
	out ObjectID
}

// LinkRef identifies a link object.
type LinkRef struct {
	link ObjectID
}

// Field names differ between the ref types so that no plain conversion such as
// InputRef(outputRef) type-checks; only the named methods below convert.

func PortRefOf(id ObjectID) PortRef {
	return PortRef{id: id}
}

func LinkRefOf(id ObjectID) LinkRef {
	return LinkRef{link: id}
}

// Input promotes a directionless ref once the port is observed to be an input.
func (r PortRef) Input() InputRef {
	return InputRef{in: r.id}
}

// Output promotes a directionless ref once the port is observed to be an output.
func (r PortRef) Output() OutputRef {
	return OutputRef{out: r.id}
}

func (r PortRef) ObjectID() ObjectID { return r.id }
func (r PortRef) String() string     { return string(r.id) }

// Unknown demotes the ref for lookups in the port table.
func (r InputRef) Unknown() PortRef {
	return PortRef{id: r.in}
}

func (r InputRef) ObjectID() ObjectID { return r.in }
func (r InputRef) String() string     { return string(r.in) }

// Unknown demotes the ref for lookups in the port table.
func (r OutputRef) Unknown() PortRef {
	return PortRef{id: r.out}
}

func (r OutputRef) ObjectID() ObjectID { return r.out }
func (r OutputRef) String() string     { return string(r.out) }

func (r LinkRef) ObjectID() ObjectID { return r.link }
func (r LinkRef) String() string     { return string(r.link) }

// LinkKey is the (output, input) endpoint pair links are bucketed by.
type LinkKey struct {
	Output OutputRef
	Input  InputRef
}

func NewLinkKey(output OutputRef, input InputRef) LinkKey {
	return LinkKey{Output: output, Input: input}
}
