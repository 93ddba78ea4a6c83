package voices

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"strings"

	"github.com/admiralbulldogtv/echotts/src/audio"
	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

type CloneRequest struct {
	WorkspaceID string
	Name        string
	Filename    string
	ContentType string
	Audio       []byte
}

type VideoCloneRequest struct {
	WorkspaceID string `json:"workspace_id"`
	Name        string `json:"name"`
	URL         string `json:"url"`
	StartTime   *int   `json:"start_time"`
	Duration    *int   `json:"duration"`
}

func validateTarget(workspaceID, name string) error {
	if strings.TrimSpace(workspaceID) == "" {
		return fmt.Errorf("%w: workspace_id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	return nil
}

// validateVideoURL accepts absolute http(s) urls only.
func validateVideoURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidRequest)
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: url must be an http(s) url", ErrInvalidRequest)
	}
	return nil
}

// Clone submits an uploaded recording to the provider. The size check runs before a profile is created.
func (s *Service) Clone(ctx context.Context, req CloneRequest) (datastructures.VoiceProfile, error) {
	if s.provider == nil {
		return datastructures.VoiceProfile{}, ErrServiceUnavailable
	}
	if err := validateTarget(req.WorkspaceID, req.Name); err != nil {
		return datastructures.VoiceProfile{}, err
	}
	if len(req.Audio) == 0 {
		return datastructures.VoiceProfile{}, fmt.Errorf("%w: audio is empty", ErrInvalidRequest)
	}
	if len(req.Audio) > s.opts.MaxAudioSize {
		return datastructures.VoiceProfile{}, fmt.Errorf("%w (max %dMB)", ErrPayloadTooLarge, s.opts.MaxAudioSize/(1024*1024))
	}

	p, err := s.registry.Create(ctx, req.WorkspaceID, req.Name, datastructures.VoiceSourceRecording, "")
	if err != nil {
		return p, err
	}

	return s.submit(ctx, p, fmt.Sprintf("Voice cloned for %s workspace", s.opts.NamePrefix), instances.AudioFile{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Data:        req.Audio,
	})
}

// CloneFromVideo downloads the audio of a video, cuts [start, start+duration) out of it and submits that.
// Everything written to disk lives in a per-call temp dir that is removed on return.
func (s *Service) CloneFromVideo(ctx context.Context, req VideoCloneRequest) (datastructures.VoiceProfile, error) {
	if s.provider == nil {
		return datastructures.VoiceProfile{}, ErrServiceUnavailable
	}
	if err := validateTarget(req.WorkspaceID, req.Name); err != nil {
		return datastructures.VoiceProfile{}, err
	}
	if err := validateVideoURL(req.URL); err != nil {
		return datastructures.VoiceProfile{}, err
	}

	start, duration := 0, s.opts.DefaultDuration
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.Duration != nil {
		duration = *req.Duration
	}
	if start < 0 || duration <= 0 {
		return datastructures.VoiceProfile{}, fmt.Errorf("%w: start_time must be >= 0 and duration > 0", ErrInvalidRequest)
	}
	if duration > s.opts.MaxDuration {
		return datastructures.VoiceProfile{}, fmt.Errorf("%w: duration must be at most %d seconds", ErrInvalidRequest, s.opts.MaxDuration)
	}

	p, err := s.registry.Create(ctx, req.WorkspaceID, req.Name, datastructures.VoiceSourceYouTube, req.URL)
	if err != nil {
		return p, err
	}

	data, err := s.extract(ctx, req.URL, start, duration)
	if err != nil {
		return s.fail(ctx, p), fmt.Errorf("%w: %s", ErrDownload, err.Error())
	}

	return s.submit(ctx, p, fmt.Sprintf("Voice cloned from YouTube for %s", s.opts.NamePrefix), instances.AudioFile{
		Filename:    "youtube_audio.wav",
		ContentType: "audio/wav",
		Data:        data,
	})
}

func (s *Service) extract(ctx context.Context, source string, start, duration int) (data []byte, err error) {
	dir, err := ioutil.TempDir(s.opts.TempDir, "echotts-")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			logrus.WithError(rerr).WithField("dir", dir).Error("failed to remove temp dir")
			if err != nil {
				err = multierror.Append(err, rerr)
			}
		}
	}()

	path, err := s.videos.DownloadAudio(ctx, source, dir)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return audio.Segment(f, start, duration)
}

// submit sends audio to the provider and settles the processing profile p with the outcome.
func (s *Service) submit(ctx context.Context, p datastructures.VoiceProfile, description string, file instances.AudioFile) (datastructures.VoiceProfile, error) {
	cctx, cancel := context.WithTimeout(ctx, s.opts.CloneTimeout)
	defer cancel()

	voiceID, err := s.provider.AddVoice(cctx, fmt.Sprintf("%s - %s", s.opts.NamePrefix, p.Name), description, file)
	if err != nil {
		p = s.fail(ctx, p)

		var perr *instances.ProviderError
		switch {
		case errors.As(err, &perr):
			return p, fmt.Errorf("failed to clone voice: %w", perr)
		case isTimeout(err):
			return p, fmt.Errorf("%w: voice cloning timed out", ErrTimeout)
		default:
			return p, fmt.Errorf("failed to clone voice: %w", err)
		}
	}

	ready, err := s.registry.MarkReady(ctx, p.ID, voiceID)
	if err != nil {
		// the profile was removed or settled while the provider was cloning
		logrus.WithError(err).WithFields(logrus.Fields{
			"profile_id": p.ID,
			"voice_id":   voiceID,
		}).Warn("cloned voice has no processing profile")
		return p, err
	}

	logrus.WithFields(logrus.Fields{
		"profile_id": ready.ID,
		"voice_id":   voiceID,
		"source":     ready.Source,
	}).Info("voice cloned")
	return ready, nil
}

// fail settles p as failed and returns the updated record, or p itself when it can no longer be updated.
func (s *Service) fail(ctx context.Context, p datastructures.VoiceProfile) datastructures.VoiceProfile {
	failed, err := s.registry.MarkFailed(ctx, p.ID)
	if err != nil {
		logrus.WithError(err).WithField("profile_id", p.ID).Warn("failed to mark profile failed")
		return p
	}
	return failed
}
