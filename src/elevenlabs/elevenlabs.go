package elevenlabs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/admiralbulldogtv/echotts/src/datastructures"
	"github.com/admiralbulldogtv/echotts/src/instances"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const DefaultBaseURL = "https://api.elevenlabs.io/v1"

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type addVoiceResponse struct {
	VoiceID string `json:"voice_id"`
}

type voiceListResponse struct {
	Voices []struct {
		VoiceID    string `json:"voice_id"`
		Name       string `json:"name"`
		PreviewURL string `json:"preview_url"`
		Category   string `json:"category"`
	} `json:"voices"`
}

type client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var httpClient = &http.Client{
	Transport: &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		MaxIdleConns:    16,
		IdleConnTimeout: 30 * time.Second,
	},
}

// New returns a provider client. Deadlines come from the caller's context.
func New(baseURL, apiKey string) instances.Provider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
		http:    httpClient,
	}
}

func (c *client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("xi-api-key", c.apiKey)
	return req, nil
}

func (c *client) do(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, &instances.ProviderError{
			StatusCode: resp.StatusCode,
			Detail:     strings.TrimSpace(string(detail)),
		}
	}

	return resp, nil
}

func (c *client) AddVoice(ctx context.Context, name, description string, file instances.AudioFile) (string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if err := w.WriteField("name", name); err != nil {
		return "", err
	}
	if err := w.WriteField("description", description); err != nil {
		return "", err
	}

	filename := file.Filename
	if filename == "" {
		filename = "recording.wav"
	}
	contentType := file.ContentType
	if contentType == "" {
		contentType = "audio/wav"
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(filename)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err = part.Write(file.Data); err != nil {
		return "", err
	}
	if err = w.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/voices/add", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	out := addVoiceResponse{}
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.VoiceID == "" {
		return "", &instances.ProviderError{StatusCode: resp.StatusCode, Detail: "response is missing voice_id"}
	}

	return out.VoiceID, nil
}

func (c *client) DeleteVoice(ctx context.Context, voiceID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/voices/"+url.PathEscape(voiceID), nil)
	if err != nil {
		return err
	}

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}

func (c *client) ListVoices(ctx context.Context) ([]datastructures.ProviderVoice, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/voices", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	list := voiceListResponse{}
	if err = json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, err
	}

	voices := make([]datastructures.ProviderVoice, 0, len(list.Voices))
	for _, v := range list.Voices {
		category := v.Category
		if category == "" {
			category = "default"
		}
		voices = append(voices, datastructures.ProviderVoice{
			ID:         v.VoiceID,
			Name:       v.Name,
			PreviewURL: v.PreviewURL,
			Category:   category,
		})
	}

	return voices, nil
}

func (c *client) speechRequest(ctx context.Context, path string, r instances.SpeechRequest) (*http.Response, error) {
	data, err := json.Marshal(ttsRequest{
		Text:    r.Text,
		ModelID: r.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       r.Stability,
			SimilarityBoost: r.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	return c.do(req)
}

func (c *client) TextToSpeech(ctx context.Context, voiceID string, r instances.SpeechRequest) ([]byte, error) {
	resp, err := c.speechRequest(ctx, "/text-to-speech/"+url.PathEscape(voiceID), r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ioutil.ReadAll(resp.Body)
}

// TextToSpeechStream returns the response body as it arrives. The caller must close it.
func (c *client) TextToSpeechStream(ctx context.Context, voiceID string, r instances.SpeechRequest) (io.ReadCloser, error) {
	resp, err := c.speechRequest(ctx, "/text-to-speech/"+url.PathEscape(voiceID)+"/stream", r)
	if err != nil {
		return nil, err
	}

	return resp.Body, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
