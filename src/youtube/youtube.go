package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var ErrNoAudio = errors.New("no audio downloaded")

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	stderr := &bytes.Buffer{}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return out, err
		}
		return out, fmt.Errorf("%w: %s", err, msg)
	}
	return out, nil
}

type Options struct {
	YtDlpPath  string
	FfmpegPath string
	SampleRate int
	Run        Runner
}

type source struct {
	ytdlp      string
	ffmpeg     string
	sampleRate int
	run        Runner
}

func New(opts Options) instances.VideoSource {
	s := &source{
		ytdlp:      opts.YtDlpPath,
		ffmpeg:     opts.FfmpegPath,
		sampleRate: opts.SampleRate,
		run:        opts.Run,
	}
	if s.ytdlp == "" {
		s.ytdlp = "yt-dlp"
	}
	if s.ffmpeg == "" {
		s.ffmpeg = "ffmpeg"
	}
	if s.sampleRate == 0 {
		s.sampleRate = 44100
	}
	if s.run == nil {
		s.run = ExecRunner
	}
	return s
}

type searchResult struct {
	Entries []*struct {
		ID         string   `json:"id"`
		Title      string   `json:"title"`
		Thumbnail  string   `json:"thumbnail"`
		Duration   *float64 `json:"duration"`
		Channel    string   `json:"channel"`
		Thumbnails []struct {
			URL string `json:"url"`
		} `json:"thumbnails"`
	} `json:"entries"`
}

func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func (s *source) Search(ctx context.Context, query string, limit int) ([]datastructures.Video, error) {
	if limit <= 0 {
		limit = 10
	}

	out, err := s.run(ctx, s.ytdlp,
		"--flat-playlist",
		"--dump-single-json",
		"--quiet",
		"--no-warnings",
		fmt.Sprintf("ytsearch%d:%s", limit, query),
	)
	if err != nil {
		return nil, err
	}

	result := searchResult{}
	if err = json.Unmarshal(out, &result); err != nil {
		return nil, err
	}

	videos := []datastructures.Video{}
	for _, e := range result.Entries {
		if e == nil || e.ID == "" {
			continue
		}
		thumb := e.Thumbnail
		if thumb == "" && len(e.Thumbnails) > 0 {
			thumb = e.Thumbnails[len(e.Thumbnails)-1].URL
		}
		videos = append(videos, datastructures.Video{
			ID:        e.ID,
			Title:     e.Title,
			URL:       WatchURL(e.ID),
			Thumbnail: thumb,
			Duration:  e.Duration,
			Channel:   e.Channel,
		})
	}

	return videos, nil
}

// DownloadAudio fetches the best audio track with yt-dlp and transcodes it to 16 bit mono PCM with ffmpeg.
func (s *source) DownloadAudio(ctx context.Context, url string, dir string) (string, error) {
	tmpl := filepath.Join(dir, "source.%(ext)s")
	if _, err := s.run(ctx, s.ytdlp,
		"--format", "bestaudio/best",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"--output", tmpl,
		"--",
		url,
	); err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(dir, "source.*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNoAudio
	}

	wavPath := filepath.Join(dir, "audio.wav")
	if _, err = s.run(ctx, s.ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", matches[0],
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(s.sampleRate),
		"-acodec", "pcm_s16le",
		wavPath,
	); err != nil {
		return "", err
	}

	if _, err = os.Stat(wavPath); err != nil {
		return "", ErrNoAudio
	}

	logrus.WithField("url", url).Debug("downloaded audio")
	return wavPath, nil
}
