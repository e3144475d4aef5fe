package console

import "errors"

// Editor errors.
var (
	ErrEditorClosed   = errors.New("editor is closed")
	ErrSubmitInFlight = errors.New("a submit is already in flight")
)

// EditorState tags the edit dialog's state.
type EditorState int

const (
	// EditorClosed means no dialog is showing.
	EditorClosed EditorState = iota
	// EditorCreating means the dialog is open on empty fields.
	EditorCreating
	// EditorEditing means the dialog is open seeded from an existing
	// record.
	EditorEditing
)

// Editor models the edit dialog: closed, creating a new record, or
// editing an existing one seeded from the current row. Submitting
// while closed or while another submit runs is rejected, which makes
// double-clicks harmless.
type Editor[T any] struct {
	state      EditorState
	seed       T
	submitting bool
}

// NewEditor constructs a closed editor.
func NewEditor[T any]() *Editor[T] {
	return &Editor[T]{}
}

// State returns the current dialog state.
func (e *Editor[T]) State() EditorState { return e.state }

// OpenCreate opens the dialog on empty fields.
func (e *Editor[T]) OpenCreate() {
	var zero T
	e.state = EditorCreating
	e.seed = zero
	e.submitting = false
}

// OpenEdit opens the dialog pre-populated from the seed record.
func (e *Editor[T]) OpenEdit(seed T) {
	e.state = EditorEditing
	e.seed = seed
	e.submitting = false
}

// Seed returns the record the dialog was opened on. Only meaningful in
// the editing state.
func (e *Editor[T]) Seed() (T, bool) {
	if e.state != EditorEditing {
		return e.seed, false
	}
	return e.seed, true
}

// Cancel discards the dialog without emitting.
func (e *Editor[T]) Cancel() {
	var zero T
	e.state = EditorClosed
	e.seed = zero
	e.submitting = false
}

// Submit runs save for the assembled record. On success the dialog
// closes; on failure it stays open with its edits so the user can
// correct and retry.
func (e *Editor[T]) Submit(record T, save func(T) error) error {
	if e.state == EditorClosed {
		return ErrEditorClosed
	}
	if e.submitting {
		return ErrSubmitInFlight
	}
	e.submitting = true
	errSave := save(record)
	e.submitting = false
	if errSave != nil {
		return errSave
	}
	e.Cancel()
	return nil
}
