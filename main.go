package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/admiralbulldogtv/echotts/src/configure"
	"github.com/admiralbulldogtv/echotts/src/elevenlabs"
	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/admiralbulldogtv/echotts/src/instances"
	"github.com/admiralbulldogtv/echotts/src/manager"
	"github.com/admiralbulldogtv/echotts/src/mongo"
	"github.com/admiralbulldogtv/echotts/src/redis"
	"github.com/admiralbulldogtv/echotts/src/registry"
	"github.com/admiralbulldogtv/echotts/src/voices"
	"github.com/admiralbulldogtv/echotts/src/youtube"
	"github.com/sirupsen/logrus"
)

func main() {
	config := configure.New()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := global.WithCancel(global.NewCtx(sigCtx, config))
	defer cancel()

	var (
		store     instances.ProfileStore
		publisher instances.Publisher
		closers   []manager.Closer
	)

	switch config.Store.Backend {
	case configure.StoreRedis:
		redisInst, err := redis.NewInstance(ctx, redis.SetupOptions{
			Username:   config.Redis.Username,
			Password:   config.Redis.Password,
			MasterName: config.Redis.MasterName,
			Database:   config.Redis.Database,
			Addresses:  config.Redis.Addresses,
			Sentinel:   config.Redis.Sentinel,
		})
		if err != nil {
			logrus.WithError(err).Fatal("failed to start redis")
		}
		store = redis.NewProfileStore(redisInst)
		publisher = redisInst
		ctx.Inst().Events = redisInst
		closers = append(closers, manager.Closer{Name: "redis", Close: func(context.Context) error {
			return redisInst.Close()
		}})
	case configure.StoreMongo:
		mctx, mcancel := context.WithTimeout(ctx, time.Second*10)
		mongoInst, err := mongo.NewInstance(mctx, config.Mongo.URI, config.Mongo.DB, config.Mongo.Collection)
		mcancel()
		if err != nil {
			logrus.WithError(err).Fatal("failed to start mongo")
		}
		store = mongoInst
		closers = append(closers, manager.Closer{Name: "mongo", Close: mongoInst.Close})
	case configure.StoreMemory:
		store = registry.NewMemoryStore()
	default:
		logrus.WithField("backend", config.Store.Backend).Fatal("unknown store backend")
	}

	var provider instances.Provider
	if config.ElevenLabs.ApiKey != "" {
		provider = elevenlabs.New(config.ElevenLabs.BaseURL, config.ElevenLabs.ApiKey)
	} else {
		logrus.Warn("elevenlabs api key not set, cloning and synthesis are disabled")
	}

	videos := youtube.New(youtube.Options{
		YtDlpPath:  config.YouTube.YtDlpPath,
		FfmpegPath: config.YouTube.FfmpegPath,
		SampleRate: config.YouTube.SampleRate,
	})

	ctx.Inst().Voices = voices.New(registry.New(store, publisher), provider, videos, voices.Options{
		DefaultVoiceID:   config.ElevenLabs.DefaultVoiceID,
		ModelID:          config.ElevenLabs.ModelID,
		NamePrefix:       config.ElevenLabs.NamePrefix,
		Stability:        config.ElevenLabs.Stability,
		SimilarityBoost:  config.ElevenLabs.SimilarityBoost,
		CloneTimeout:     time.Duration(config.ElevenLabs.CloneTimeout) * time.Second,
		SynthesisTimeout: time.Duration(config.ElevenLabs.SynthesisTimeout) * time.Second,
		MaxAudioSize:     config.MaxAudioSize,
		SearchLimit:      config.YouTube.SearchLimit,
		DefaultDuration:  config.YouTube.DefaultDuration,
		MaxDuration:      config.YouTube.MaxDuration,
		TempDir:          config.YouTube.TempDir,
	})

	logrus.WithFields(logrus.Fields{
		"store":      config.Store.Backend,
		"elevenlabs": provider != nil,
	}).Info("echo-tts starting")

	done := manager.New(ctx, closers...)

	<-done
}
