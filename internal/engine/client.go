package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// Client talks to a generation sidecar over its REST API. The sidecar hosts
// the actual model; this client only moves embeddings, continuation tokens,
// and raw sample blocks across the wire.
type Client struct {
	apiURL string
	apiKey string
	http   *http.Client
}

// NewClient creates a generation sidecar client.
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL: apiURL,
		apiKey: apiKey,
		http:   &http.Client{Timeout: 90 * time.Second},
	}
}

type embedRequest struct {
	Style string `json:"style"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error"`
}

type generateRequest struct {
	State string    `json:"state,omitempty"` // continuation token, empty = fresh stream
	Style []float32 `json:"style"`
	Seed  int       `json:"seed"`
}

type generateResponse struct {
	Samples string `json:"samples"` // base64 f32le interleaved
	State   string `json:"state"`
	Error   string `json:"error"`
}

// WaitForHealthy blocks until the sidecar responds to health checks.
func (c *Client) WaitForHealthy(ctx context.Context) error {
	log.Info("waiting for generation engine", "url", c.apiURL)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := c.http.Get(c.apiURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			log.Info("generation engine is healthy")
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}

		log.Debug("engine not ready, retrying in 5s")
		time.Sleep(5 * time.Second)
	}
}

// EmbedStyle asks the sidecar to embed a free-text style label.
func (c *Client) EmbedStyle(ctx context.Context, label string) (StyleEmbedding, error) {
	var out embedResponse
	if err := c.post(ctx, "/embed_style", embedRequest{Style: label}, &out); err != nil {
		return nil, fmt.Errorf("embed style %q: %w", label, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("embed style %q: %s", label, out.Error)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("embed style %q: empty embedding", label)
	}
	return StyleEmbedding(out.Embedding), nil
}

// Generate requests the next chunk from the sidecar. State is the opaque
// continuation token from the previous call, or nil for a fresh stream.
func (c *Client) Generate(ctx context.Context, state State, style StyleEmbedding, seed int) ([]float32, State, error) {
	req := generateRequest{Style: style, Seed: seed}
	if state != nil {
		token, ok := state.(string)
		if !ok {
			return nil, nil, fmt.Errorf("generate: continuation state is not a sidecar token")
		}
		req.State = token
	}

	var out generateResponse
	if err := c.post(ctx, "/generate_chunk", req, &out); err != nil {
		return nil, nil, fmt.Errorf("generate chunk: %w", err)
	}
	if out.Error != "" {
		return nil, nil, fmt.Errorf("generate chunk: %s", out.Error)
	}

	samples, err := decodeSamples(out.Samples)
	if err != nil {
		return nil, nil, fmt.Errorf("generate chunk: %w", err)
	}
	return samples, out.State, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("engine status %d: %s", resp.StatusCode, msg)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// decodeSamples unpacks base64-encoded little-endian float32 samples.
func decodeSamples(encoded string) ([]float32, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode samples: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("decode samples: %d bytes is not float32-aligned", len(raw))
	}
	samples := make([]float32, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		samples[i] = math.Float32frombits(bits)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("decode samples: empty chunk")
	}
	return samples, nil
}
