package datastructures

import "time"

type VoiceSource string

const (
	VoiceSourceRecording VoiceSource = "recording"
	VoiceSourceYouTube   VoiceSource = "youtube"
	VoiceSourceDefault   VoiceSource = "default"
)

type VoiceStatus string

const (
	VoiceStatusProcessing VoiceStatus = "processing"
	VoiceStatusReady      VoiceStatus = "ready"
	VoiceStatusFailed     VoiceStatus = "failed"
)

// VoiceProfile correlates a cloned voice with the id the provider issued for it.
// ExternalVoiceID is set if and only if Status is VoiceStatusReady.
type VoiceProfile struct {
	ID              string      `json:"id" bson:"_id"`
	WorkspaceID     string      `json:"workspace_id" bson:"workspace_id"`
	Name            string      `json:"name" bson:"name"`
	Source          VoiceSource `json:"source" bson:"source"`
	ExternalVoiceID *string     `json:"external_voice_id" bson:"external_voice_id"`
	Status          VoiceStatus `json:"status" bson:"status"`
	CreatedAt       time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" bson:"updated_at"`
	SourceURL       string      `json:"source_url,omitempty" bson:"source_url,omitempty"`
}

func (p VoiceProfile) Ready() bool {
	return p.Status == VoiceStatusReady && p.ExternalVoiceID != nil
}

type ProviderVoice struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PreviewURL string `json:"preview_url,omitempty"`
	Category   string `json:"category"`
}

type Video struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Thumbnail string   `json:"thumbnail,omitempty"`
	Duration  *float64 `json:"duration"`
	Channel   string   `json:"channel,omitempty"`
}
