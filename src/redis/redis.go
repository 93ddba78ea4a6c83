package redis

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

type Instance struct {
	c       redis.UniversalClient
	p       *redis.PubSub
	subs    map[string][]*subscriber
	subsMtx sync.Mutex
}

type SetupOptions struct {
	Username   string
	Password   string
	MasterName string
	Database   int

	Addresses []string
	Sentinel  bool
}

func NewInstance(ctx context.Context, opts SetupOptions) (*Instance, error) {
	if len(opts.Addresses) == 0 {
		return nil, errors.New("you must provide at least one redis address")
	}

	var rc *redis.Client

	if opts.Sentinel {
		rc = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:       opts.MasterName,
			SentinelAddrs:    opts.Addresses,
			SentinelUsername: opts.Username,
			SentinelPassword: opts.Password,
			Username:         opts.Username,
			Password:         opts.Password,
			DB:               opts.Database,
		})
	} else {
		rc = redis.NewClient(&redis.Options{
			Addr:     opts.Addresses[0],
			Username: opts.Username,
			Password: opts.Password,
			DB:       opts.Database,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	i := newInstance(ctx, rc)

	if err := i.Ping(ctx); err != nil {
		_ = i.Close()
		return nil, err
	}

	return i, nil
}

func newInstance(ctx context.Context, rc redis.UniversalClient) *Instance {
	i := &Instance{
		c:    rc,
		p:    rc.Subscribe(ctx),
		subs: make(map[string][]*subscriber),
	}

	go i.dispatch()

	return i
}

// dispatch hands every message to the queues of the channel's subscribers. It never blocks on a subscriber.
func (i *Instance) dispatch() {
	for msg := range i.p.Channel() {
		i.subsMtx.Lock()
		for _, s := range i.subs[msg.Channel] {
			if !s.offer(msg.Payload) {
				logrus.WithField("channel", msg.Channel).Warn("subscriber is behind, dropping event")
			}
		}
		i.subsMtx.Unlock()
	}
}

func (i *Instance) Ping(ctx context.Context) error {
	return i.c.Ping(ctx).Err()
}

func (i *Instance) Close() error {
	_ = i.p.Close()
	return i.c.Close()
}
