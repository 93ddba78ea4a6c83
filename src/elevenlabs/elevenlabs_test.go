package elevenlabs

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/admiralbulldogtv/echotts/src/instances"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "xi-key", r.Header.Get("xi-api-key"))

		h, ok := routes[r.Method+" "+r.URL.Path]
		if !ok {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestAddVoice(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"POST /voices/add": func(w http.ResponseWriter, r *http.Request) {
			if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				return
			}
			assert.Equal(t, "HomeOS - Bob", r.FormValue("name"))
			assert.Equal(t, "Voice cloned for HomeOS workspace", r.FormValue("description"))

			f, hdr, err := r.FormFile("files")
			if !assert.NoError(t, err) {
				return
			}
			defer f.Close()
			data, _ := ioutil.ReadAll(f)
			assert.Equal(t, "bob.mp3", hdr.Filename)
			assert.Equal(t, "audio/mpeg", hdr.Header.Get("Content-Type"))
			assert.Equal(t, []byte("RIFFDATA"), data)

			_, _ = w.Write([]byte(`{"voice_id":"v123"}`))
		},
	})

	c := New(srv.URL, "xi-key")
	id, err := c.AddVoice(context.Background(), "HomeOS - Bob", "Voice cloned for HomeOS workspace", instances.AudioFile{
		Filename:    "bob.mp3",
		ContentType: "audio/mpeg",
		Data:        []byte("RIFFDATA"),
	})
	require.NoError(t, err)
	assert.Equal(t, "v123", id)
}

func TestAddVoiceProviderError(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"POST /voices/add": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"voice_limit_reached"}`))
		},
	})

	_, err := New(srv.URL, "xi-key").AddVoice(context.Background(), "n", "d", instances.AudioFile{Data: []byte("x")})

	perr := &instances.ProviderError{}
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.Contains(t, perr.Detail, "voice_limit_reached")
}

func TestAddVoiceDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"POST /voices/add": func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		},
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(srv.URL, "xi-key").AddVoice(ctx, "n", "d", instances.AudioFile{Data: []byte("x")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), err.Error())
}

func TestListVoices(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"GET /voices": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"voices":[
				{"voice_id":"21m00Tcm4TlvDq8ikWAM","name":"Rachel","preview_url":"https://p/1.mp3","category":"premade"},
				{"voice_id":"abc","name":"Mine"}
			]}`))
		},
	})

	voices, err := New(srv.URL, "xi-key").ListVoices(context.Background())
	require.NoError(t, err)
	require.Len(t, voices, 2)

	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", voices[0].ID)
	assert.Equal(t, "Rachel", voices[0].Name)
	assert.Equal(t, "premade", voices[0].Category)
	assert.Equal(t, "https://p/1.mp3", voices[0].PreviewURL)
	assert.Equal(t, "default", voices[1].Category)
}

func TestDeleteVoice(t *testing.T) {
	called := false
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"DELETE /voices/v1": func(w http.ResponseWriter, r *http.Request) {
			called = true
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		},
		"DELETE /voices/gone": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
	})

	c := New(srv.URL, "xi-key")
	require.NoError(t, c.DeleteVoice(context.Background(), "v1"))
	assert.True(t, called)

	perr := &instances.ProviderError{}
	assert.True(t, errors.As(c.DeleteVoice(context.Background(), "gone"), &perr))
}

func TestTextToSpeech(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"POST /text-to-speech/v1": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body := ttsRequest{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "hello", body.Text)
			assert.Equal(t, "eleven_monolingual_v1", body.ModelID)
			assert.InEpsilon(t, 0.5, body.VoiceSettings.Stability, 0.001)
			assert.InEpsilon(t, 0.75, body.VoiceSettings.SimilarityBoost, 0.001)

			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3MP3"))
		},
	})

	audio, err := New(srv.URL, "xi-key").TextToSpeech(context.Background(), "v1", instances.SpeechRequest{
		Text:            "hello",
		ModelID:         "eleven_monolingual_v1",
		Stability:       0.5,
		SimilarityBoost: 0.75,
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3MP3"), audio)
}

func TestTextToSpeechStream(t *testing.T) {
	srv := newTestServer(t, map[string]http.HandlerFunc{
		"POST /text-to-speech/v1/stream": func(w http.ResponseWriter, r *http.Request) {
			f := w.(http.Flusher)
			_, _ = w.Write([]byte("AAA"))
			f.Flush()
			_, _ = w.Write([]byte("BBB"))
			f.Flush()
		},
		"POST /text-to-speech/bad/stream": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("invalid api key"))
		},
	})

	c := New(srv.URL, "xi-key")

	body, err := c.TextToSpeechStream(context.Background(), "v1", instances.SpeechRequest{Text: "hello"})
	require.NoError(t, err)
	defer body.Close()

	data, err := ioutil.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "AAABBB", string(data))

	_, err = c.TextToSpeechStream(context.Background(), "bad", instances.SpeechRequest{Text: "hello"})
	perr := &instances.ProviderError{}
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "invalid api key", perr.Detail)
}
