package configure

import (
	"bytes"
	"strings"

	jsoniter "github.com/json-iterator/go"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Config struct {
	ConfigFile string `mapstructure:"config_file" json:"config_file"`
	Level      string `mapstructure:"level" json:"level"`

	ApiBind string   `mapstructure:"api_bind" json:"api_bind"`
	Cors    []string `mapstructure:"cors" json:"cors"`

	JwtSecret string `mapstructure:"jwt_secret" json:"jwt_secret"`

	// max accepted size of an uploaded clone recording, in bytes
	MaxAudioSize int `mapstructure:"max_audio_size" json:"max_audio_size"`

	Store struct {
		Backend string `mapstructure:"backend" json:"backend"`
	} `mapstructure:"store" json:"store"`

	ElevenLabs struct {
		ApiKey           string  `mapstructure:"api_key" json:"api_key"`
		BaseURL          string  `mapstructure:"base_url" json:"base_url"`
		ModelID          string  `mapstructure:"model_id" json:"model_id"`
		DefaultVoiceID   string  `mapstructure:"default_voice_id" json:"default_voice_id"`
		NamePrefix       string  `mapstructure:"name_prefix" json:"name_prefix"`
		Stability        float64 `mapstructure:"stability" json:"stability"`
		SimilarityBoost  float64 `mapstructure:"similarity_boost" json:"similarity_boost"`
		CloneTimeout     int     `mapstructure:"clone_timeout" json:"clone_timeout"`
		SynthesisTimeout int     `mapstructure:"synthesis_timeout" json:"synthesis_timeout"`
	} `mapstructure:"elevenlabs" json:"elevenlabs"`

	YouTube struct {
		YtDlpPath       string `mapstructure:"ytdlp_path" json:"ytdlp_path"`
		FfmpegPath      string `mapstructure:"ffmpeg_path" json:"ffmpeg_path"`
		SampleRate      int    `mapstructure:"sample_rate" json:"sample_rate"`
		SearchLimit     int    `mapstructure:"search_limit" json:"search_limit"`
		TempDir         string `mapstructure:"temp_dir" json:"temp_dir"`
		DefaultDuration int    `mapstructure:"default_duration" json:"default_duration"`
		MaxDuration     int    `mapstructure:"max_duration" json:"max_duration"`
	} `mapstructure:"youtube" json:"youtube"`

	Redis struct {
		Addresses  []string `mapstructure:"addresses" json:"addresses"`
		Username   string   `mapstructure:"username" json:"username"`
		Password   string   `mapstructure:"password" json:"password"`
		MasterName string   `mapstructure:"master_name" json:"master_name"`
		Database   int      `mapstructure:"database" json:"database"`
		Sentinel   bool     `mapstructure:"sentinel" json:"sentinel"`
	} `mapstructure:"redis" json:"redis"`

	Mongo struct {
		URI        string `mapstructure:"uri" json:"uri"`
		DB         string `mapstructure:"db" json:"db"`
		Collection string `mapstructure:"collection" json:"collection"`
	} `mapstructure:"mongo" json:"mongo"`
}

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreMongo  = "mongo"

	DevJwtSecret = "dev-jwt-secret-change-in-production"
)

func defaultConfig() Config {
	c := Config{
		ConfigFile:   "config.yaml",
		Level:        "info",
		ApiBind:      "0.0.0.0:8000",
		Cors:         []string{"*"},
		JwtSecret:    DevJwtSecret,
		MaxAudioSize: 10 * 1024 * 1024,
	}

	c.Store.Backend = StoreMemory

	c.ElevenLabs.BaseURL = "https://api.elevenlabs.io/v1"
	c.ElevenLabs.ModelID = "eleven_monolingual_v1"
	c.ElevenLabs.DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	c.ElevenLabs.NamePrefix = "HomeOS"
	c.ElevenLabs.Stability = 0.5
	c.ElevenLabs.SimilarityBoost = 0.75
	c.ElevenLabs.CloneTimeout = 120
	c.ElevenLabs.SynthesisTimeout = 60

	c.YouTube.YtDlpPath = "yt-dlp"
	c.YouTube.FfmpegPath = "ffmpeg"
	c.YouTube.SampleRate = 44100
	c.YouTube.SearchLimit = 10
	c.YouTube.DefaultDuration = 30
	c.YouTube.MaxDuration = 300

	c.Redis.Addresses = []string{"localhost:6379"}

	c.Mongo.URI = "mongodb://localhost:27017"
	c.Mongo.DB = "echotts"
	c.Mongo.Collection = "voice_profiles"

	return c
}

func initLog(level string) {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetReportCaller(true)
	if l, err := log.ParseLevel(level); err == nil {
		log.SetLevel(l)
	}
}

// Load builds the config from defaults, the environment and an optional config file, in that order of precedence (lowest first).
func Load() (*Config, error) {
	// Default config
	b, err := json.Marshal(defaultConfig())
	if err != nil {
		return nil, err
	}
	defaults := viper.New()
	defaults.SetConfigType("json")
	if err = defaults.ReadConfig(bytes.NewReader(b)); err != nil {
		return nil, err
	}

	v := viper.New()
	if err = v.MergeConfigMap(defaults.AllSettings()); err != nil {
		return nil, err
	}

	// Environment
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	if err = v.BindEnv("elevenlabs.api_key", "ELEVENLABS_API_KEY", "ELEVEN_LABS_API_KEY"); err != nil {
		return nil, err
	}

	// File
	v.SetConfigFile(v.GetString("config_file"))
	if err = v.MergeInConfig(); err != nil {
		log.WithError(err).Warn("no config file loaded")
		log.Info("Using default config")
	}

	c := &Config{}
	if err = v.Unmarshal(c); err != nil {
		return nil, err
	}

	return c, nil
}

func New() *Config {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetReportCaller(true)
	log.SetLevel(log.DebugLevel)

	c, err := Load()
	if err != nil {
		log.WithError(err).Fatal("failed on configure")
	}

	initLog(c.Level)

	if c.JwtSecret == DevJwtSecret {
		log.Warn("jwt_secret is the development default")
	}

	return c
}
