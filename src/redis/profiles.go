package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxTxRetries = 10

func profileKey(id string) string {
	return fmt.Sprintf("voices:profile:%s", id)
}

func workspaceKey(workspaceID string) string {
	return fmt.Sprintf("voices:workspace:%s", workspaceID)
}

// ProfileStore keeps each profile as a json string plus a per workspace set of ids.
type ProfileStore struct {
	i *Instance
}

func NewProfileStore(i *Instance) instances.ProfileStore {
	return &ProfileStore{i: i}
}

func (s *ProfileStore) Insert(ctx context.Context, p datastructures.VoiceProfile) error {
	data, err := json.MarshalToString(p)
	if err != nil {
		return err
	}

	_, err = s.i.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, profileKey(p.ID), data, 0)
		pipe.SAdd(ctx, workspaceKey(p.WorkspaceID), p.ID)
		return nil
	})
	return err
}

func (s *ProfileStore) Get(ctx context.Context, id string) (datastructures.VoiceProfile, error) {
	return get(ctx, s.i.c, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func get(ctx context.Context, c getter, id string) (datastructures.VoiceProfile, error) {
	p := datastructures.VoiceProfile{}

	data, err := c.Get(ctx, profileKey(id)).Result()
	if err != nil {
		if err == redis.Nil {
			return p, instances.ErrNotFound
		}
		return p, err
	}

	err = json.UnmarshalFromString(data, &p)
	return p, err
}

func (s *ProfileStore) List(ctx context.Context, workspaceID string) ([]datastructures.VoiceProfile, error) {
	ids, err := s.i.c.SMembers(ctx, workspaceKey(workspaceID)).Result()
	if err != nil {
		return nil, err
	}

	out := []datastructures.VoiceProfile{}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for idx, id := range ids {
		keys[idx] = profileKey(id)
	}

	values, err := s.i.c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			// removed between SMEMBERS and MGET
			continue
		}
		p := datastructures.VoiceProfile{}
		if err = json.UnmarshalFromString(data, &p); err != nil {
			return nil, err
		}
		if p.WorkspaceID == workspaceID {
			out = append(out, p)
		}
	}

	return out, nil
}

// Update runs fn under WATCH so concurrent writers to the same profile retry instead of overwriting each other.
func (s *ProfileStore) Update(ctx context.Context, id string, fn func(p *datastructures.VoiceProfile) error) (datastructures.VoiceProfile, error) {
	var out datastructures.VoiceProfile

	txf := func(tx *redis.Tx) error {
		p, err := get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err = fn(&p); err != nil {
			return err
		}

		data, err := json.MarshalToString(p)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, profileKey(id), data, 0)
			return nil
		})
		if err == nil {
			out = p
		}
		return err
	}

	for n := 0; n < maxTxRetries; n++ {
		err := s.i.c.Watch(ctx, txf, profileKey(id))
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}

	return out, fmt.Errorf("update of %s kept conflicting", id)
}

func (s *ProfileStore) Delete(ctx context.Context, id string) error {
	p, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.i.c.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, profileKey(id))
		pipe.SRem(ctx, workspaceKey(p.WorkspaceID), id)
		return nil
	})
	return err
}

func (s *ProfileStore) Ping(ctx context.Context) error {
	return s.i.Ping(ctx)
}
