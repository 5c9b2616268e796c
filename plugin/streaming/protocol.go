package streaming

import "encoding/json"

// ClientConfiguration is the open-message payload the backend expects
// immediately after a successful connect.
type ClientConfiguration struct {
	Model    string
	ReportID string
	Features *ClientConfigurationFeatures
}

// ClientConfigurationFeatures toggles optional backend behavior.
type ClientConfigurationFeatures struct {
	VoiceEditing VoiceEditingFeature
}

// VoiceEditingFeature enables server-side voice editing support.
type VoiceEditingFeature struct {
	IsEnabled bool
}

type wireClientConfiguration struct {
	Type     string        `json:"type"`
	Model    string        `json:"model,omitempty"`
	ReportID string        `json:"reportId,omitempty"`
	Features *wireFeatures `json:"features,omitempty"`
}

type wireFeatures struct {
	VoiceEditing wireVoiceEditing `json:"voiceEditing"`
}

type wireVoiceEditing struct {
	IsEnabled bool `json:"isEnabled"`
}

// OpenMessageHook builds a session.Hooks.OpenMessage function that sends
// cfg as the {"type":"ClientConfiguration",...} open message on connect.
func OpenMessageHook(cfg ClientConfiguration) func() ([]byte, bool, bool) {
	wire := wireClientConfiguration{
		Type:     "ClientConfiguration",
		Model:    cfg.Model,
		ReportID: cfg.ReportID,
	}
	if cfg.Features != nil {
		wire.Features = &wireFeatures{
			VoiceEditing: wireVoiceEditing{IsEnabled: cfg.Features.VoiceEditing.IsEnabled},
		}
	}

	return func() ([]byte, bool, bool) {
		payload, err := json.Marshal(wire)
		if err != nil {
			return nil, false, false
		}
		return payload, true, true
	}
}
