package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrInvalidTransition = errors.New("voice profile is not processing")

type Registry struct {
	store     instances.ProfileStore
	publisher instances.Publisher
	now       func() time.Time
}

// New creates a registry on top of store. publisher may be nil, in which case no profile events are emitted.
func New(store instances.ProfileStore, publisher instances.Publisher) *Registry {
	return &Registry{
		store:     store,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func EventChannel(workspaceID string) string {
	return fmt.Sprintf("voices:events:%s", workspaceID)
}

func (r *Registry) Create(ctx context.Context, workspaceID, name string, source datastructures.VoiceSource, sourceURL string) (datastructures.VoiceProfile, error) {
	now := r.now()
	p := datastructures.VoiceProfile{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		Name:        name,
		Source:      source,
		Status:      datastructures.VoiceStatusProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if source == datastructures.VoiceSourceYouTube {
		p.SourceURL = sourceURL
	}

	if err := r.store.Insert(ctx, p); err != nil {
		return p, err
	}

	r.publish(ctx, datastructures.ProfileEventCreated, p)
	return p, nil
}

func (r *Registry) Get(ctx context.Context, id string) (datastructures.VoiceProfile, error) {
	return r.store.Get(ctx, id)
}

func (r *Registry) List(ctx context.Context, workspaceID string) ([]datastructures.VoiceProfile, error) {
	return r.store.List(ctx, workspaceID)
}

func (r *Registry) MarkReady(ctx context.Context, id, externalVoiceID string) (datastructures.VoiceProfile, error) {
	p, err := r.transition(ctx, id, func(p *datastructures.VoiceProfile) {
		p.Status = datastructures.VoiceStatusReady
		p.ExternalVoiceID = &externalVoiceID
	})
	if err != nil {
		return p, err
	}

	r.publish(ctx, datastructures.ProfileEventReady, p)
	return p, nil
}

func (r *Registry) MarkFailed(ctx context.Context, id string) (datastructures.VoiceProfile, error) {
	p, err := r.transition(ctx, id, func(p *datastructures.VoiceProfile) {
		p.Status = datastructures.VoiceStatusFailed
		p.ExternalVoiceID = nil
	})
	if err != nil {
		return p, err
	}

	r.publish(ctx, datastructures.ProfileEventFailed, p)
	return p, nil
}

func (r *Registry) Delete(ctx context.Context, id string) error {
	p, err := r.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if err = r.store.Delete(ctx, id); err != nil {
		return err
	}

	r.publish(ctx, datastructures.ProfileEventDeleted, p)
	return nil
}

func (r *Registry) Ping(ctx context.Context) error {
	return r.store.Ping(ctx)
}

// transition applies set to a processing profile. ready and failed are terminal.
func (r *Registry) transition(ctx context.Context, id string, set func(p *datastructures.VoiceProfile)) (datastructures.VoiceProfile, error) {
	return r.store.Update(ctx, id, func(p *datastructures.VoiceProfile) error {
		if p.Status != datastructures.VoiceStatusProcessing {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, p.ID, p.Status)
		}
		set(p)
		p.UpdatedAt = r.now()
		return nil
	})
}

func (r *Registry) publish(ctx context.Context, event string, p datastructures.VoiceProfile) {
	if r.publisher == nil {
		return
	}

	data, err := json.MarshalToString(datastructures.ProfileEvent{
		Event:   event,
		Payload: p,
	})
	if err != nil {
		logrus.WithError(err).Error("failed to encode profile event")
		return
	}

	if err = r.publisher.Publish(ctx, EventChannel(p.WorkspaceID), data); err != nil {
		logrus.WithError(err).WithField("profile_id", p.ID).Warn("failed to publish profile event")
	}
}
