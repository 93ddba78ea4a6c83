package voices

import (
	"context"
	"fmt"
	"time"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
	"github.com/admiralbulldogtv/echotts/src/registry"
	"github.com/sirupsen/logrus"
)

type Options struct {
	DefaultVoiceID   string
	ModelID          string
	NamePrefix       string
	Stability        float64
	SimilarityBoost  float64
	CloneTimeout     time.Duration
	SynthesisTimeout time.Duration
	MaxAudioSize     int
	SearchLimit      int
	DefaultDuration  int
	MaxDuration      int
	TempDir          string
}

func DefaultOptions() Options {
	return Options{
		DefaultVoiceID:   "21m00Tcm4TlvDq8ikWAM",
		ModelID:          "eleven_monolingual_v1",
		NamePrefix:       "HomeOS",
		Stability:        0.5,
		SimilarityBoost:  0.75,
		CloneTimeout:     120 * time.Second,
		SynthesisTimeout: 60 * time.Second,
		MaxAudioSize:     10 * 1024 * 1024,
		SearchLimit:      10,
		DefaultDuration:  30,
		MaxDuration:      300,
	}
}

// Service runs the clone, synthesis, search and deletion flows against the registry and the provider.
// A nil provider makes every provider-backed flow fail with ErrServiceUnavailable.
type Service struct {
	registry *registry.Registry
	provider instances.Provider
	videos   instances.VideoSource
	opts     Options
}

func New(reg *registry.Registry, provider instances.Provider, videos instances.VideoSource, opts Options) *Service {
	return &Service{
		registry: reg,
		provider: provider,
		videos:   videos,
		opts:     opts,
	}
}

func (s *Service) Configured() bool {
	return s.provider != nil
}

func (s *Service) Registry() *registry.Registry {
	return s.registry
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]datastructures.VoiceProfile, error) {
	return s.registry.List(ctx, workspaceID)
}

func (s *Service) Get(ctx context.Context, id string) (datastructures.VoiceProfile, error) {
	return s.registry.Get(ctx, id)
}

func (s *Service) Defaults(ctx context.Context) ([]datastructures.ProviderVoice, error) {
	if s.provider == nil {
		return nil, ErrServiceUnavailable
	}

	return s.provider.ListVoices(ctx)
}

// Delete removes a profile. Removing the cloned voice from the provider is best effort,
// its failure is logged and the local record is removed regardless.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.registry.Get(ctx, id)
	if err != nil {
		return err
	}

	if p.ExternalVoiceID != nil && s.provider != nil {
		if err = s.provider.DeleteVoice(ctx, *p.ExternalVoiceID); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"profile_id": p.ID,
				"voice_id":   *p.ExternalVoiceID,
			}).Warn("failed to delete voice from provider")
		}
	}

	return s.registry.Delete(ctx, id)
}

func (s *Service) Search(ctx context.Context, query string) ([]datastructures.Video, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}

	videos, err := s.videos.Search(ctx, query, s.opts.SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrAdapter, err.Error())
	}
	return videos, nil
}
