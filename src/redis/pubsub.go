package redis

import (
	"context"

	"github.com/sirupsen/logrus"
)

const subscriberQueue = 64

// subscriber relays the messages of its channels to out in the order they were published.
type subscriber struct {
	ctx   context.Context
	out   chan string
	queue chan string
}

func (s *subscriber) offer(msg string) bool {
	select {
	case s.queue <- msg:
		return true
	default:
		return false
	}
}

func (s *subscriber) run() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case msg := <-s.queue:
			select {
			case s.out <- msg:
			case <-s.ctx.Done():
				return
			}
		}
	}
}

// Publish to a redis channel
func (i *Instance) Publish(ctx context.Context, channel string, data string) error {
	return i.c.Publish(ctx, channel, data).Err()
}

// Subscribe forwards messages of the given channels to ch until ctx is done.
// Messages arrive in publish order; nothing is sent to ch after ctx is done.
func (i *Instance) Subscribe(ctx context.Context, ch chan string, channels ...string) error {
	sub := &subscriber{ctx: ctx, out: ch, queue: make(chan string, subscriberQueue)}

	i.subsMtx.Lock()
	var fresh []string
	for _, c := range channels {
		if len(i.subs[c]) == 0 {
			fresh = append(fresh, c)
		}
	}
	if len(fresh) > 0 {
		if err := i.p.Subscribe(ctx, fresh...); err != nil {
			i.subsMtx.Unlock()
			return err
		}
	}
	for _, c := range channels {
		i.subs[c] = append(i.subs[c], sub)
	}
	i.subsMtx.Unlock()

	go sub.run()
	go func() {
		<-ctx.Done()
		i.unsubscribe(sub, channels)
	}()

	return nil
}

func (i *Instance) unsubscribe(sub *subscriber, channels []string) {
	i.subsMtx.Lock()
	defer i.subsMtx.Unlock()

	var idle []string
	for _, c := range channels {
		subs := i.subs[c]
		for idx, s := range subs {
			if s == sub {
				subs = append(subs[:idx], subs[idx+1:]...)
				break
			}
		}
		if len(subs) == 0 {
			delete(i.subs, c)
			idle = append(idle, c)
		} else {
			i.subs[c] = subs
		}
	}

	if len(idle) > 0 {
		if err := i.p.Unsubscribe(context.Background(), idle...); err != nil {
			logrus.WithError(err).WithField("channels", idle).Error("failed to unsubscribe")
		}
	}
}
