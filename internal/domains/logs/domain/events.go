package domain

// ChangeKind says what happened to a collection.
type ChangeKind string

const (
	ChangeAppended ChangeKind = "appended"
	ChangeReplaced ChangeKind = "replaced"
)

// ChangeEvent is published after a collection was written.
type ChangeEvent struct {
	Collection Collection
	Kind       ChangeKind
	Record     Record
}
