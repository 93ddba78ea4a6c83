package manager

import (
	"context"
	"time"

	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/admiralbulldogtv/echotts/src/server"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
)

// Closer releases a backing resource on shutdown.
type Closer struct {
	Name  string
	Close func(ctx context.Context) error
}

// New starts the api and returns a channel closed once the server stopped and every closer ran.
func New(ctx global.Context, closers ...Closer) <-chan struct{} {
	done := make(chan struct{})

	serverDone := server.New(ctx)

	go func() {
		<-ctx.Done()
		<-serverDone

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*15)
		defer cancel()

		if err := closeAll(closeCtx, closers); err != nil {
			logrus.WithError(err).Error("shutdown incomplete")
		}
		logrus.Info("shutdown complete")
		close(done)
	}()

	return done
}

func closeAll(ctx context.Context, closers []Closer) error {
	var result *multierror.Error
	for _, c := range closers {
		if err := c.Close(ctx); err != nil {
			logrus.WithError(err).WithField("resource", c.Name).Warn("failed to close")
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
