package transcribe

import "fmt"

// DocumentState is the annotated transcript document: text plus an
// insertion-ordered sequence of annotations. It is treated as an
// immutable value; Apply never mutates its argument.
type DocumentState struct {
	Text        string
	Annotations []Annotation
}

func indexOfAnnotation(annotations []Annotation, id string) int {
	for i, a := range annotations {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func removeAllAnnotations(annotations []Annotation, id string) []Annotation {
	out := make([]Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func spliceRunes(text []rune, start, end int, replacement []rune) ([]rune, error) {
	if start < 0 || start > end || end > len(text) {
		return nil, &IndexOutOfBoundsError{Start: start, End: end, Length: len(text)}
	}
	out := make([]rune, 0, len(text)-(end-start)+len(replacement))
	out = append(out, text[:start]...)
	out = append(out, replacement...)
	out = append(out, text[end:]...)
	return out, nil
}

// Apply folds actions over state in order, returning the resulting
// document. Annotations are never re-indexed by a ReplaceText: the server
// is expected to send matching annotation updates explicitly (§9 Open
// Questions — preserved deliberately, not a bug).
func Apply(state DocumentState, actions []Action) (DocumentState, error) {
	text := []rune(state.Text)
	annotations := append([]Annotation(nil), state.Annotations...)

	for _, a := range actions {
		switch act := a.(type) {
		case ReplaceText:
			merged, err := spliceRunes(text, act.Start, act.End, []rune(act.Text))
			if err != nil {
				return state, err
			}
			text = merged

		case AddAnnotation:
			annotations = append(annotations, act.Annotation)

		case UpdateAnnotation:
			if idx := indexOfAnnotation(annotations, act.Annotation.ID); idx >= 0 {
				annotations[idx] = act.Annotation
			}
			// No match: Apply is a no-op, but MapInverses will reject the
			// whole batch with AnnotationNotFoundError.

		case RemoveAnnotation:
			annotations = removeAllAnnotations(annotations, act.AnnotationID)

		default:
			return state, fmt.Errorf("transcribe: unknown action type %T", a)
		}
	}

	return DocumentState{Text: string(text), Annotations: annotations}, nil
}
