package transcribe

import (
	"encoding/json"
	"fmt"
)

type wireMessage struct {
	Actions []wireAction `json:"actions"`
}

type wireAction struct {
	ID         string          `json:"id"`
	Index      int             `json:"index"`
	Type       string          `json:"type"`
	Parameters json.RawMessage `json:"parameters"`
}

type wireReplaceTextParams struct {
	Start *int    `json:"start"`
	End   *int    `json:"end"`
	Text  *string `json:"text"`
}

type wireAnnotationParams struct {
	ID         *string `json:"id"`
	Start      *int    `json:"start"`
	End        *int    `json:"end"`
	Kind       *string `json:"kind"`
	Status     *string `json:"status"`
	EntityType *string `json:"entity_type"`
	Text       *string `json:"text"`
}

type wireRemoveAnnotationParams struct {
	AnnotationID *string `json:"annotation_id"`
}

// Decode parses a server message of the form {"actions": [...]} into the
// Action slice it describes. An action whose "type" or annotation "kind"
// is not one this package understands is a fatal DecodeError, never a
// silently dropped entry.
func Decode(raw []byte) ([]Action, error) {
	var msg wireMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, &DecodeError{Path: "$", Reason: err.Error()}
	}

	actions := make([]Action, 0, len(msg.Actions))
	for i, wa := range msg.Actions {
		path := fmt.Sprintf("actions[%d]", i)
		meta := ActionMeta{ID: wa.ID, Index: wa.Index}

		switch wa.Type {
		case "replace_text":
			action, err := decodeReplaceText(path, meta, wa.Parameters)
			if err != nil {
				return nil, err
			}
			actions = append(actions, action)

		case "add_annotation":
			ann, err := decodeAnnotation(path, wa.Parameters)
			if err != nil {
				return nil, err
			}
			actions = append(actions, AddAnnotation{ActionMeta: meta, Annotation: ann})

		case "update_annotation":
			ann, err := decodeAnnotation(path, wa.Parameters)
			if err != nil {
				return nil, err
			}
			actions = append(actions, UpdateAnnotation{ActionMeta: meta, Annotation: ann})

		case "remove_annotation":
			var p wireRemoveAnnotationParams
			if err := json.Unmarshal(wa.Parameters, &p); err != nil {
				return nil, &DecodeError{Path: path + ".parameters", Reason: err.Error()}
			}
			if p.AnnotationID == nil {
				return nil, missingField(path + ".parameters.annotation_id")
			}
			actions = append(actions, RemoveAnnotation{ActionMeta: meta, AnnotationID: *p.AnnotationID})

		default:
			return nil, unknownVariant(path+".type", wa.Type)
		}
	}

	return actions, nil
}

func decodeReplaceText(path string, meta ActionMeta, raw json.RawMessage) (Action, error) {
	var p wireReplaceTextParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &DecodeError{Path: path + ".parameters", Reason: err.Error()}
	}
	if p.Start == nil {
		return nil, missingField(path + ".parameters.start")
	}
	if p.End == nil {
		return nil, missingField(path + ".parameters.end")
	}
	if p.Text == nil {
		return nil, missingField(path + ".parameters.text")
	}
	return ReplaceText{ActionMeta: meta, Start: *p.Start, End: *p.End, Text: *p.Text}, nil
}

func decodeAnnotation(path string, raw json.RawMessage) (Annotation, error) {
	var p wireAnnotationParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return Annotation{}, &DecodeError{Path: path + ".parameters", Reason: err.Error()}
	}
	if p.ID == nil {
		return Annotation{}, missingField(path + ".parameters.id")
	}
	if p.Start == nil {
		return Annotation{}, missingField(path + ".parameters.start")
	}
	if p.End == nil {
		return Annotation{}, missingField(path + ".parameters.end")
	}
	if p.Kind == nil {
		return Annotation{}, missingField(path + ".parameters.kind")
	}

	var kind AnnotationKind
	switch *p.Kind {
	case "transcription_tentative":
		kind = TranscriptionTentative{}

	case "intent":
		if p.Status == nil {
			return Annotation{}, missingField(path + ".parameters.status")
		}
		switch *p.Status {
		case "pending":
			kind = Intent{Status: IntentPending}
		case "recognized":
			kind = Intent{Status: IntentRecognized}
		default:
			return Annotation{}, unknownVariant(path+".parameters.status", *p.Status)
		}

	case "entity":
		if p.EntityType == nil {
			return Annotation{}, missingField(path + ".parameters.entity_type")
		}
		if p.Text == nil {
			return Annotation{}, missingField(path + ".parameters.text")
		}
		switch *p.EntityType {
		case "name":
			kind = Entity{Type: EntityName, Text: *p.Text}
		default:
			return Annotation{}, unknownVariant(path+".parameters.entity_type", *p.EntityType)
		}

	default:
		return Annotation{}, unknownVariant(path+".parameters.kind", *p.Kind)
	}

	return Annotation{ID: *p.ID, Start: *p.Start, End: *p.End, Kind: kind}, nil
}
