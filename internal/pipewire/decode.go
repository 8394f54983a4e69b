package pipewire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/linkctl/internal/graph"
	"github.com/danmuck/linkctl/internal/session"
)

var ErrDecode = errors.New("pipewire: malformed registry stream")

var jsonNull = []byte("null")

// object is one entry of a pw-dump array. A removal carries "info": null.
type object struct {
	ID   json.Number     `json:"id"`
	Type string          `json:"type"`
	Info json.RawMessage `json:"info"`
	// metadata objects carry their props beside info rather than inside it
	Props map[string]json.RawMessage `json:"props"`
}

type objectInfo struct {
	Props map[string]json.RawMessage `json:"props"`
}

// Decoder turns the pw-dump JSON array stream into registry semantics: the
// first sighting of an id is an add, "info": null is a remove, and updates
// to an id already announced are dropped.
type Decoder struct {
	dec       *json.Decoder
	announced map[graph.ObjectID]struct{}
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		dec:       json.NewDecoder(r),
		announced: make(map[graph.ObjectID]struct{}),
	}
}

// Run decodes batches until EOF, which is reported as nil.
func (d *Decoder) Run(sink session.Sink) error {
	for {
		var batch []object
		if err := d.dec.Decode(&batch); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		for _, obj := range batch {
			if err := d.apply(obj, sink); err != nil {
				return err
			}
		}
	}
}

func (d *Decoder) apply(obj object, sink session.Sink) error {
	if obj.ID == "" {
		return nil
	}
	id := graph.ObjectID(obj.ID.String())

	if bytes.Equal(bytes.TrimSpace(obj.Info), jsonNull) {
		if _, ok := d.announced[id]; ok {
			delete(d.announced, id)
			sink.Remove(id)
		}
		return nil
	}
	if _, ok := d.announced[id]; ok {
		return nil
	}

	props := obj.Props
	if len(obj.Info) > 0 {
		var info objectInfo
		if err := json.Unmarshal(obj.Info, &info); err != nil {
			return fmt.Errorf("%w: object %s info: %w", ErrDecode, id, err)
		}
		if info.Props != nil {
			props = info.Props
		}
	}
	flat, err := flattenProps(props)
	if err != nil {
		return fmt.Errorf("%w: object %s props: %w", ErrDecode, id, err)
	}
	d.announced[id] = struct{}{}
	sink.Add(id, flat)
	return nil
}

// flattenProps renders every property as the string the native registry
// would report: strings unquoted, numbers and booleans verbatim.
func flattenProps(raw map[string]json.RawMessage) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		value = bytes.TrimSpace(value)
		if len(value) == 0 || bytes.Equal(value, jsonNull) {
			continue
		}
		if value[0] == '"' {
			var s string
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = s
			continue
		}
		out[key] = string(value)
	}
	return out, nil
}
