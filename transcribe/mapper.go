package transcribe

// UndoableAction pairs an applied Action with the ordered list of actions
// that exactly reverses its effect on the document. Inverse is always
// applied in its own (unreversed) order; only the set of sibling actions
// in a batch is ever processed in reverse when undoing (see Stream.Undo).
type UndoableAction struct {
	Original Action
	Inverse  []Action
}

// MapInverses walks actions against pre (the document state immediately
// before the batch) and computes each action's inverse, without mutating
// pre. It returns an error, and no UndoableActions, if any action targets
// an index or annotation id that does not exist at the point it runs.
func MapInverses(pre DocumentState, actions []Action) ([]UndoableAction, error) {
	text := []rune(pre.Text)
	annotations := append([]Annotation(nil), pre.Annotations...)

	out := make([]UndoableAction, 0, len(actions))

	for _, a := range actions {
		switch act := a.(type) {
		case ReplaceText:
			if act.Start < 0 || act.Start > act.End || act.End > len(text) {
				return nil, &IndexOutOfBoundsError{Start: act.Start, End: act.End, Length: len(text)}
			}
			old := string(text[act.Start:act.End])
			inverse := ReplaceText{
				ActionMeta: act.ActionMeta,
				Start:      act.Start,
				End:        act.Start + len([]rune(act.Text)),
				Text:       old,
			}
			out = append(out, UndoableAction{Original: act, Inverse: []Action{inverse}})

			merged, err := spliceRunes(text, act.Start, act.End, []rune(act.Text))
			if err != nil {
				return nil, err
			}
			text = merged

		case AddAnnotation:
			inverse := RemoveAnnotation{ActionMeta: act.ActionMeta, AnnotationID: act.Annotation.ID}
			out = append(out, UndoableAction{Original: act, Inverse: []Action{inverse}})
			annotations = append(annotations, act.Annotation)

		case UpdateAnnotation:
			idx := indexOfAnnotation(annotations, act.Annotation.ID)
			if idx < 0 {
				return nil, &AnnotationNotFoundError{Op: "update", ID: act.Annotation.ID}
			}
			prior := annotations[idx]
			inverse := []Action{
				RemoveAnnotation{ActionMeta: act.ActionMeta, AnnotationID: act.Annotation.ID},
				AddAnnotation{ActionMeta: act.ActionMeta, Annotation: prior},
			}
			out = append(out, UndoableAction{Original: act, Inverse: inverse})
			annotations[idx] = act.Annotation

		case RemoveAnnotation:
			var removed []Annotation
			remaining := make([]Annotation, 0, len(annotations))
			for _, ann := range annotations {
				if ann.ID == act.AnnotationID {
					removed = append(removed, ann)
				} else {
					remaining = append(remaining, ann)
				}
			}
			if len(removed) == 0 {
				return nil, &AnnotationNotFoundError{Op: "remove", ID: act.AnnotationID}
			}
			inverse := make([]Action, 0, len(removed))
			for _, ann := range removed {
				inverse = append(inverse, AddAnnotation{ActionMeta: act.ActionMeta, Annotation: ann})
			}
			out = append(out, UndoableAction{Original: act, Inverse: inverse})
			annotations = remaining

		default:
			return nil, &DecodeError{Path: "action", Reason: "unknown action type in MapInverses"}
		}
	}

	return out, nil
}
