// Package reorder implements live drag-and-drop reordering over ordered slices.
//
// A drag gesture emits one (dragIndex, hoverIndex) event per pointer-over-target
// transition. Each event moves the dragged element immediately and hands back
// the updated drag coordinates, so the list reorders continuously while the
// pointer moves instead of once on drop. An aborted gesture keeps the last
// hovered order.
package reorder

// NoFolder marks a drag coordinate that addresses the top level.
const NoFolder = -1

// Position is a drag coordinate: an index inside the top level (Folder ==
// NoFolder) or inside the folder at Folder.
type Position struct {
	Index  int `json:"index"`
	Folder int `json:"folder"`
}

// TopLevel returns a top-level position.
func TopLevel(index int) Position { return Position{Index: index, Folder: NoFolder} }

// InFolder returns a position inside a folder.
func InFolder(index, folder int) Position { return Position{Index: index, Folder: folder} }

func (p Position) IsTopLevel() bool { return p.Folder == NoFolder }

// Move removes the element at drag and reinserts it at hover, in place.
//
// It returns the drag index the caller must use for the next event, which is
// hover after a move. Equal indices and an out-of-range drag are no-ops; hover
// is clamped to the slice bounds.
func Move[T any](seq []T, drag, hover int) (int, bool) {
	if drag < 0 || drag >= len(seq) {
		return drag, false
	}
	hover = clamp(hover, 0, len(seq)-1)
	if drag == hover {
		return drag, false
	}

	v := seq[drag]
	if drag < hover {
		copy(seq[drag:hover], seq[drag+1:hover+1])
	} else {
		copy(seq[hover+1:drag+1], seq[hover:drag])
	}
	seq[hover] = v
	return hover, true
}

// Remove deletes the element at i and returns it with the shortened slice.
func Remove[T any](seq []T, i int) ([]T, T, bool) {
	var zero T
	if i < 0 || i >= len(seq) {
		return seq, zero, false
	}
	v := seq[i]
	out := make([]T, 0, len(seq)-1)
	out = append(out, seq[:i]...)
	out = append(out, seq[i+1:]...)
	return out, v, true
}

// Insert places v at position i, clamped to [0, len(seq)].
// The returned slice never aliases seq.
func Insert[T any](seq []T, i int, v T) ([]T, int) {
	i = clamp(i, 0, len(seq))
	out := make([]T, 0, len(seq)+1)
	out = append(out, seq[:i]...)
	out = append(out, v)
	out = append(out, seq[i:]...)
	return out, i
}

// DropIndex is where an element entering a container of size n lands when the
// pointer hovers the element at hover: right after it. A negative hover lands
// first and a hover past the end appends.
func DropIndex(hover, n int) int {
	if hover < 0 {
		return 0
	}
	return clamp(hover+1, 0, n)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
