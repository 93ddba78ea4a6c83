package instances

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
)

var ErrNotFound = errors.New("voice profile not found")

// ProfileStore is the persistence boundary of the voice registry.
// Update must apply fn atomically for the given id.
type ProfileStore interface {
	Insert(ctx context.Context, p datastructures.VoiceProfile) error
	Get(ctx context.Context, id string) (datastructures.VoiceProfile, error)
	List(ctx context.Context, workspaceID string) ([]datastructures.VoiceProfile, error)
	Update(ctx context.Context, id string, fn func(p *datastructures.VoiceProfile) error) (datastructures.VoiceProfile, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, channel string, data string) error
}

type AudioFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type SpeechRequest struct {
	Text            string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
}

// Provider is the voice-synthesis service doing the actual cloning and speech generation.
type Provider interface {
	AddVoice(ctx context.Context, name, description string, file AudioFile) (string, error)
	DeleteVoice(ctx context.Context, voiceID string) error
	ListVoices(ctx context.Context) ([]datastructures.ProviderVoice, error)
	TextToSpeech(ctx context.Context, voiceID string, req SpeechRequest) ([]byte, error)
	TextToSpeechStream(ctx context.Context, voiceID string, req SpeechRequest) (io.ReadCloser, error)
}

type VideoSource interface {
	Search(ctx context.Context, query string, limit int) ([]datastructures.Video, error)
	// DownloadAudio fetches the best audio track of url into dir and returns the path of a PCM wav file.
	DownloadAudio(ctx context.Context, url string, dir string) (string, error)
}

// ProviderError is a non-success response from the provider.
type ProviderError struct {
	StatusCode int
	Detail     string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider responded %d: %s", e.StatusCode, e.Detail)
}
