package voices

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// idleTimeout cancels its context when a wait runs longer than d. The clock only runs between reset and pause.
type idleTimeout struct {
	d      time.Duration
	timer  *time.Timer
	cancel context.CancelFunc
	fired  int32
}

func withIdleTimeout(ctx context.Context, d time.Duration) (context.Context, *idleTimeout) {
	cctx, cancel := context.WithCancel(ctx)
	t := &idleTimeout{d: d, cancel: cancel}
	t.timer = time.AfterFunc(d, func() {
		atomic.StoreInt32(&t.fired, 1)
		cancel()
	})
	return cctx, t
}

func (t *idleTimeout) reset() {
	if !t.expired() {
		t.timer.Reset(t.d)
	}
}

func (t *idleTimeout) pause() {
	t.timer.Stop()
}

func (t *idleTimeout) expired() bool {
	return atomic.LoadInt32(&t.fired) == 1
}

func (t *idleTimeout) stop() {
	t.timer.Stop()
	t.cancel()
}

type idleReadCloser struct {
	body io.ReadCloser
	idle *idleTimeout
}

func (r *idleReadCloser) Read(p []byte) (int, error) {
	r.idle.reset()
	n, err := r.body.Read(p)
	r.idle.pause()
	if err != nil && err != io.EOF && r.idle.expired() {
		err = fmt.Errorf("%w: no audio for %s", ErrTimeout, r.idle.d)
	}
	return n, err
}

func (r *idleReadCloser) Close() error {
	defer r.idle.stop()
	return r.body.Close()
}
