package transcribe

// Action is the tagged sum of document mutations a server (or a local
// undo/redo replay) can apply. id is the server-assigned action id;
// index is its monotonic position in the stream.
type Action interface {
	isAction()
}

// ActionMeta carries the fields common to every Action variant.
type ActionMeta struct {
	ID    string
	Index int
}

// ReplaceText splices Text in over the half-open character range
// [Start, End) of the document. Character positions count Unicode scalar
// values, not bytes.
type ReplaceText struct {
	ActionMeta
	Start, End int
	Text       string
}

func (ReplaceText) isAction() {}

// Annotation is a typed span [Start, End) over the transcript text.
type Annotation struct {
	ID         string
	Start, End int
	Kind       AnnotationKind
}

// AddAnnotation appends Annotation to the document's annotation list.
type AddAnnotation struct {
	ActionMeta
	Annotation Annotation
}

func (AddAnnotation) isAction() {}

// UpdateAnnotation replaces the first annotation whose id equals
// Annotation.ID. The source does not define a dedup policy for
// duplicate ids; "first match" is preserved deliberately (see DESIGN.md).
type UpdateAnnotation struct {
	ActionMeta
	Annotation Annotation
}

func (UpdateAnnotation) isAction() {}

// RemoveAnnotation drops every annotation whose id equals AnnotationID.
type RemoveAnnotation struct {
	ActionMeta
	AnnotationID string
}

func (RemoveAnnotation) isAction() {}
