package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/fikebr/notes-to-blog/internal/config"
)

// ImageGenerator is the image-synthesis capability. Generate returns the
// raw image bytes and a file extension (".png", ".webp", ...).
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, width, height int) ([]byte, string, error)
	Ping(ctx context.Context) error
}

const replicateBaseURL = "https://api.replicate.com/v1"

// maxImageBytes caps downloaded payloads at 50MB.
const maxImageBytes = 50 << 20

// ReplicateClient implements ImageGenerator against the Replicate
// predictions API: create a prediction, poll until terminal, download the
// first output.
type ReplicateClient struct {
	version      string
	token        string
	baseURL      string
	pollInterval time.Duration
	client       *http.Client
}

func NewReplicateClient(cfg config.ImageConfig, token string) (*ReplicateClient, error) {
	if token == "" {
		return nil, errors.New("image: api token missing (set image.api_token or N2B_REPLICATE_TOKEN)")
	}
	// Model strings look like "owner/name:version"; the API wants the version.
	_, version, ok := strings.Cut(cfg.Model, ":")
	if !ok || version == "" {
		return nil, fmt.Errorf("image: model %q missing version (want owner/name:version)", cfg.Model)
	}
	return &ReplicateClient{
		version:      version,
		token:        token,
		baseURL:      replicateBaseURL,
		pollInterval: 2 * time.Second,
		client:       &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

func (r *ReplicateClient) Generate(ctx context.Context, prompt string, width, height int) ([]byte, string, error) {
	var pred prediction
	err := withRetry(ctx, 2, time.Second, func() error {
		p, err := r.createPrediction(ctx, prompt, width, height)
		if err != nil {
			return err
		}
		pred = p
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	outputURL, err := r.awaitOutput(ctx, pred)
	if err != nil {
		return nil, "", err
	}

	data, err := r.download(ctx, outputURL)
	if err != nil {
		return nil, "", err
	}
	return data, extensionFor(outputURL), nil
}

func (r *ReplicateClient) createPrediction(ctx context.Context, prompt string, width, height int) (prediction, error) {
	payload := map[string]any{
		"version": r.version,
		"input": map[string]any{
			"prompt": prompt,
			"width":  width,
			"height": height,
		},
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", r.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return prediction{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+r.token)

	return r.doPrediction(req)
}

func (r *ReplicateClient) getPrediction(ctx context.Context, id string) (prediction, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", r.baseURL+"/predictions/"+id, nil)
	if err != nil {
		return prediction{}, err
	}
	req.Header.Set("Authorization", "Token "+r.token)

	return r.doPrediction(req)
}

func (r *ReplicateClient) doPrediction(req *http.Request) (prediction, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		return prediction{}, wrapCallErr(CapabilityImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return prediction{}, &CapabilityError{
			Capability: CapabilityImage,
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("replicate API: %s", string(body)),
		}
	}

	var p prediction
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return prediction{}, capErr(CapabilityImage, KindMalformed, err)
	}
	if p.ID == "" {
		return prediction{}, capErr(CapabilityImage, KindMalformed, errors.New("prediction missing id"))
	}
	return p, nil
}

// awaitOutput polls the prediction until it reaches a terminal status and
// returns the first output URL.
func (r *ReplicateClient) awaitOutput(ctx context.Context, p prediction) (string, error) {
	for {
		switch p.Status {
		case "succeeded":
			return firstOutputURL(p.Output)
		case "failed", "canceled":
			msg := p.Error
			if msg == "" {
				msg = p.Status
			}
			return "", capErr(CapabilityImage, KindHTTP, fmt.Errorf("prediction %s: %s", p.ID, msg))
		}

		select {
		case <-time.After(r.pollInterval):
		case <-ctx.Done():
			return "", wrapCallErr(CapabilityImage, ctx.Err())
		}

		next, err := r.getPrediction(ctx, p.ID)
		if err != nil {
			return "", err
		}
		p = next
	}
}

// firstOutputURL handles both output shapes the API returns: a single URL
// string or an array of URL strings.
func firstOutputURL(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", capErr(CapabilityImage, KindMalformed, errors.New("prediction succeeded with no output"))
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil && single != "" {
		return single, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 && many[0] != "" {
		return many[0], nil
	}
	return "", capErr(CapabilityImage, KindMalformed, fmt.Errorf("unrecognized output shape: %s", string(raw)))
}

func (r *ReplicateClient) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, wrapCallErr(CapabilityImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &CapabilityError{
			Capability: CapabilityImage,
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("downloading %s", rawURL),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, wrapCallErr(CapabilityImage, err)
	}
	if len(data) == 0 {
		return nil, capErr(CapabilityImage, KindMalformed, errors.New("empty image payload"))
	}
	return data, nil
}

// extensionFor extracts a known image extension from the output URL,
// defaulting to .png.
func extensionFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".png"
	}
	switch ext := strings.ToLower(path.Ext(u.Path)); ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return ".png"
	}
}

// Ping checks account access as a reachability and auth probe.
func (r *ReplicateClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", r.baseURL+"/account", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Token "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		return wrapCallErr(CapabilityImage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &CapabilityError{
			Capability: CapabilityImage,
			Kind:       KindHTTP,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("replicate API: %s", string(body)),
		}
	}
	return nil
}
