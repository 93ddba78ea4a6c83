package registry

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mtx      sync.Mutex
	channels []string
	events   []datastructures.ProfileEvent
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, data string) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	ev := datastructures.ProfileEvent{}
	if err := json.UnmarshalFromString(data, &ev); err != nil {
		return err
	}
	p.channels = append(p.channels, channel)
	p.events = append(p.events, ev)
	return p.err
}

func assertInvariant(t *testing.T, p datastructures.VoiceProfile) {
	t.Helper()
	assert.Equal(t, p.Status == datastructures.VoiceStatusReady, p.ExternalVoiceID != nil, "external voice id must be set iff ready")
}

func TestCreateStartsProcessing(t *testing.T) {
	ctx := context.Background()
	r := New(NewMemoryStore(), nil)

	p, err := r.Create(ctx, "ws1", "Bob", datastructures.VoiceSourceRecording, "https://ignored")
	require.NoError(t, err)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "ws1", p.WorkspaceID)
	assert.Equal(t, "Bob", p.Name)
	assert.Equal(t, datastructures.VoiceStatusProcessing, p.Status)
	assert.Nil(t, p.ExternalVoiceID)
	assert.Empty(t, p.SourceURL)
	assertInvariant(t, p)

	got, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestCreateYouTubeKeepsSourceURL(t *testing.T) {
	r := New(NewMemoryStore(), nil)

	p, err := r.Create(context.Background(), "ws1", "Clip", datastructures.VoiceSourceYouTube, "https://www.youtube.com/watch?v=abc")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", p.SourceURL)
}

func TestCreateIDsAreUnique(t *testing.T) {
	ctx := context.Background()
	r := New(NewMemoryStore(), nil)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		p, err := r.Create(ctx, "ws1", "n", datastructures.VoiceSourceRecording, "")
		require.NoError(t, err)
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}

func TestMarkReady(t *testing.T) {
	ctx := context.Background()
	r := New(NewMemoryStore(), nil)

	p, err := r.Create(ctx, "ws1", "Bob", datastructures.VoiceSourceRecording, "")
	require.NoError(t, err)

	p, err = r.MarkReady(ctx, p.ID, "v123")
	require.NoError(t, err)

	assert.Equal(t, datastructures.VoiceStatusReady, p.Status)
	require.NotNil(t, p.ExternalVoiceID)
	assert.Equal(t, "v123", *p.ExternalVoiceID)
	assertInvariant(t, p)

	got, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	ctx := context.Background()
	r := New(NewMemoryStore(), nil)

	ready, err := r.Create(ctx, "ws1", "a", datastructures.VoiceSourceRecording, "")
	require.NoError(t, err)
	_, err = r.MarkReady(ctx, ready.ID, "v1")
	require.NoError(t, err)

	_, err = r.MarkFailed(ctx, ready.ID)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	_, err = r.MarkReady(ctx, ready.ID, "v2")
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	got, err := r.Get(ctx, ready.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", *got.ExternalVoiceID)
	assertInvariant(t, got)

	failed, err := r.Create(ctx, "ws1", "b", datastructures.VoiceSourceRecording, "")
	require.NoError(t, err)
	failed, err = r.MarkFailed(ctx, failed.ID)
	require.NoError(t, err)
	assertInvariant(t, failed)

	_, err = r.MarkReady(ctx, failed.ID, "v3")
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestTransitionsOnMissingProfile(t *testing.T) {
	ctx := context.Background()
	r := New(NewMemoryStore(), nil)

	_, err := r.MarkReady(ctx, "nope", "v")
	assert.True(t, errors.Is(err, instances.ErrNotFound))
	_, err = r.MarkFailed(ctx, "nope")
	assert.True(t, errors.Is(err, instances.ErrNotFound))
}

func TestListFiltersByWorkspace(t *testing.T) {
	ctx := context.Background()
	r := New(NewMemoryStore(), nil)

	for _, ws := range []string{"ws1", "ws2", "ws1", "ws3", "ws1"} {
		_, err := r.Create(ctx, ws, "n", datastructures.VoiceSourceRecording, "")
		require.NoError(t, err)
	}

	list, err := r.List(ctx, "ws1")
	require.NoError(t, err)
	assert.Len(t, list, 3)
	for _, p := range list {
		assert.Equal(t, "ws1", p.WorkspaceID)
	}

	list, err = r.List(ctx, "ws")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r := New(NewMemoryStore(), nil)

	keep, err := r.Create(ctx, "ws1", "keep", datastructures.VoiceSourceRecording, "")
	require.NoError(t, err)

	err = r.Delete(ctx, "missing")
	assert.True(t, errors.Is(err, instances.ErrNotFound))

	list, err := r.List(ctx, "ws1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.Delete(ctx, keep.ID))

	_, err = r.Get(ctx, keep.ID)
	assert.True(t, errors.Is(err, instances.ErrNotFound))
	list, err = r.List(ctx, "ws1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPublishesEvents(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{err: errors.New("redis down")}
	r := New(NewMemoryStore(), pub)

	p, err := r.Create(ctx, "ws9", "n", datastructures.VoiceSourceRecording, "")
	require.NoError(t, err)
	_, err = r.MarkReady(ctx, p.ID, "v9")
	require.NoError(t, err)
	require.NoError(t, r.Delete(ctx, p.ID))

	require.Len(t, pub.events, 3)
	assert.Equal(t, datastructures.ProfileEventCreated, pub.events[0].Event)
	assert.Equal(t, datastructures.ProfileEventReady, pub.events[1].Event)
	assert.Equal(t, "v9", *pub.events[1].Payload.ExternalVoiceID)
	assert.Equal(t, datastructures.ProfileEventDeleted, pub.events[2].Event)
	for _, ch := range pub.channels {
		assert.Equal(t, "voices:events:ws9", ch)
	}
}

func TestConcurrentTransitions(t *testing.T) {
	ctx := context.Background()
	r := New(NewMemoryStore(), nil)

	p, err := r.Create(ctx, "ws1", "race", datastructures.VoiceSourceRecording, "")
	require.NoError(t, err)

	var (
		wg  sync.WaitGroup
		mtx sync.Mutex
		ok  int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				_, err = r.MarkReady(ctx, p.ID, "v")
			} else {
				_, err = r.MarkFailed(ctx, p.ID)
			}
			if err == nil {
				mtx.Lock()
				ok++
				mtx.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	got, err := r.Get(ctx, p.ID)
	require.NoError(t, err)
	assertInvariant(t, got)
}
