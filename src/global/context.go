package global

import (
	"context"

	"github.com/admiralbulldogtv/echotts/src/configure"
)

// Context is the process context. It is cancelled on shutdown and carries the config and the wired instances.
type Context interface {
	context.Context
	Config() *configure.Config
	Inst() *Instance
}

type processCtx struct {
	context.Context
	cfg  *configure.Config
	inst *Instance
}

func (c *processCtx) Config() *configure.Config {
	return c.cfg
}

func (c *processCtx) Inst() *Instance {
	return c.inst
}

func NewCtx(ctx context.Context, config *configure.Config) Context {
	return &processCtx{Context: ctx, cfg: config, inst: &Instance{}}
}

// WithCancel derives a cancellable Context sharing config and instances with parent.
func WithCancel(parent Context) (Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	return &processCtx{Context: ctx, cfg: parent.Config(), inst: parent.Inst()}, cancel
}
