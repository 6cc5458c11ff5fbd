package board

import "github.com/Himanshu5634/whiteboard-backend/pkg/docstore"

type Op string

const (
	OpCreate     Op = "create"
	OpMove       Op = "move"
	OpUpdateText Op = "update-text"
	OpDelete     Op = "delete"
)

// Mutation is one structural change to a room's note list. Which fields are
// meaningful depends on Op: Create carries the full note, the rest address
// an existing note by id.
type Mutation struct {
	Op       Op
	Note     docstore.Note
	NoteID   string
	Position docstore.Position
	Text     string
}

// Transform compiles the mutation into the pure function executed inside
// the store's isolation boundary. The function always operates on the
// freshly read notes, so concurrent mutations of different notes merge
// instead of clobbering each other. A missing note id is a silent no-op.
func (m Mutation) Transform() docstore.TransactFunc {
	switch m.Op {
	case OpCreate:
		return func(notes []docstore.Note) []docstore.Note {
			return append(notes, m.Note)
		}
	case OpMove:
		return func(notes []docstore.Note) []docstore.Note {
			for i := range notes {
				if notes[i].ID == m.NoteID {
					notes[i].Position = m.Position
				}
			}
			return notes
		}
	case OpUpdateText:
		return func(notes []docstore.Note) []docstore.Note {
			for i := range notes {
				if notes[i].ID == m.NoteID {
					notes[i].Text = m.Text
				}
			}
			return notes
		}
	case OpDelete:
		return func(notes []docstore.Note) []docstore.Note {
			out := notes[:0]
			for _, n := range notes {
				if n.ID != m.NoteID {
					out = append(out, n)
				}
			}
			return out
		}
	default:
		return func(notes []docstore.Note) []docstore.Note {
			return notes
		}
	}
}
