package datastructures

const (
	ProfileEventCreated = "created"
	ProfileEventReady   = "ready"
	ProfileEventFailed  = "failed"
	ProfileEventDeleted = "deleted"
)

type ProfileEvent struct {
	Event   string       `json:"event"`
	Payload VoiceProfile `json:"payload"`
}
