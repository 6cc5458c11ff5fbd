package docstore

import "encoding/json"

// Position locates a note on the board.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Note is an individually addressable, movable item on a board. Identity is
// the id, stable across moves and edits. Clients may attach arbitrary extra
// fields (color, size, z-index, ...); those are preserved byte-for-byte
// across store round-trips in Extra.
type Note struct {
	ID       string
	Position Position
	Text     string
	Extra    map[string]json.RawMessage
}

func (n Note) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(n.Extra)+3)
	for k, v := range n.Extra {
		fields[k] = v
	}

	id, err := json.Marshal(n.ID)
	if err != nil {
		return nil, err
	}
	pos, err := json.Marshal(n.Position)
	if err != nil {
		return nil, err
	}
	text, err := json.Marshal(n.Text)
	if err != nil {
		return nil, err
	}
	fields["id"] = id
	fields["position"] = pos
	fields["text"] = text

	return json.Marshal(fields)
}

func (n *Note) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	out := Note{}
	if raw, ok := fields["id"]; ok {
		if err := json.Unmarshal(raw, &out.ID); err != nil {
			return err
		}
		delete(fields, "id")
	}
	if raw, ok := fields["position"]; ok {
		if err := json.Unmarshal(raw, &out.Position); err != nil {
			return err
		}
		delete(fields, "position")
	}
	if raw, ok := fields["text"]; ok {
		if err := json.Unmarshal(raw, &out.Text); err != nil {
			return err
		}
		delete(fields, "text")
	}
	if len(fields) > 0 {
		out.Extra = fields
	}

	*n = out
	return nil
}

// Clone returns a deep copy of the note.
func (n Note) Clone() Note {
	c := n
	if n.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(n.Extra))
		for k, v := range n.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return c
}

// CloneNotes returns a deep copy of a notes sequence. A nil input yields an
// empty, non-nil sequence so it always serializes as a JSON array.
func CloneNotes(notes []Note) []Note {
	out := make([]Note, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Clone())
	}
	return out
}

// Document is the durable per-room state. Notes are kept in insertion
// order; display order is a per-note concern (the position field).
// CanvasState is an opaque serialized snapshot, nil when absent (wire: null).
type Document struct {
	Notes       []Note          `json:"notes"`
	CanvasState json.RawMessage `json:"canvasState"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	return Document{
		Notes:       CloneNotes(d.Notes),
		CanvasState: append(json.RawMessage(nil), d.CanvasState...),
	}
}

// Patch is a partial document for merge-writes. Nil fields are left
// untouched by SetMerge; a non-nil pointer to a zero value overwrites
// (empty notes, null canvas).
type Patch struct {
	Notes       *[]Note
	CanvasState *json.RawMessage
}
