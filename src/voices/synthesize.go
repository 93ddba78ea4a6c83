package voices

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/admiralbulldogtv/echotts/src/instances"
)

const ContentTypeMPEG = "audio/mpeg"

type SynthesizeRequest struct {
	Text           string `json:"text"`
	VoiceProfileID string `json:"voice_profile_id"`
	UseDefault     bool   `json:"use_default"`
}

// ResolveVoice maps a request to the provider voice id. use_default or an empty
// profile id selects the default voice; otherwise the profile must be ready.
func (s *Service) ResolveVoice(ctx context.Context, req SynthesizeRequest) (string, error) {
	if req.UseDefault || req.VoiceProfileID == "" {
		return s.opts.DefaultVoiceID, nil
	}

	p, err := s.registry.Get(ctx, req.VoiceProfileID)
	if err != nil {
		return "", err
	}
	if !p.Ready() {
		return "", ErrNotReady
	}

	return *p.ExternalVoiceID, nil
}

func (s *Service) prepare(ctx context.Context, req SynthesizeRequest) (string, instances.SpeechRequest, error) {
	if s.provider == nil {
		return "", instances.SpeechRequest{}, ErrServiceUnavailable
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", instances.SpeechRequest{}, fmt.Errorf("%w: text is required", ErrInvalidRequest)
	}

	voiceID, err := s.ResolveVoice(ctx, req)
	if err != nil {
		return "", instances.SpeechRequest{}, err
	}

	return voiceID, instances.SpeechRequest{
		Text:            req.Text,
		ModelID:         s.opts.ModelID,
		Stability:       s.opts.Stability,
		SimilarityBoost: s.opts.SimilarityBoost,
	}, nil
}

func (s *Service) Synthesize(ctx context.Context, req SynthesizeRequest) ([]byte, error) {
	voiceID, sr, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.opts.SynthesisTimeout)
	defer cancel()

	data, err := s.provider.TextToSpeech(sctx, voiceID, sr)
	if err != nil {
		return nil, synthesisError(err)
	}
	return data, nil
}

// SynthesizeStream opens the provider stream. Chunks are passed through untouched; closing the
// returned reader releases the provider connection. SynthesisTimeout bounds opening the stream and
// then every wait for the next chunk, not the stream as a whole.
func (s *Service) SynthesizeStream(ctx context.Context, req SynthesizeRequest) (io.ReadCloser, error) {
	voiceID, sr, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	sctx, idle := withIdleTimeout(ctx, s.opts.SynthesisTimeout)

	body, err := s.provider.TextToSpeechStream(sctx, voiceID, sr)
	if err != nil {
		idle.stop()
		if idle.expired() {
			return nil, fmt.Errorf("%w: speech synthesis timed out", ErrTimeout)
		}
		return nil, synthesisError(err)
	}

	return &idleReadCloser{body: body, idle: idle}, nil
}

func synthesisError(err error) error {
	var perr *instances.ProviderError
	switch {
	case errors.As(err, &perr):
		return fmt.Errorf("failed to synthesize speech: %w", perr)
	case isTimeout(err):
		return fmt.Errorf("%w: speech synthesis timed out", ErrTimeout)
	default:
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
}
