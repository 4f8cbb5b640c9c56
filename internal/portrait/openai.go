package portrait

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the OpenAI image generation URL.
const DefaultEndpoint = "https://api.openai.com/v1/images/generations"

// promptStyle is appended to every subject prompt so enemy and player art
// share one look.
const promptStyle = "Square character portrait, digital fantasy art with a cyberpunk edge, dramatic lighting, no text or logos."

// HTTPGenerator requests images from an OpenAI-compatible images endpoint.
type HTTPGenerator struct {
	Endpoint string
	Model    string
	Size     string
	APIKey   string
	Client   *http.Client
}

// NewHTTPGenerator creates an HTTPGenerator with a bounded HTTP client.
//
// Precondition: apiKey must be non-empty. Empty endpoint selects DefaultEndpoint.
func NewHTTPGenerator(endpoint, model, size, apiKey string, timeout time.Duration) *HTTPGenerator {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPGenerator{
		Endpoint: endpoint,
		Model:    model,
		Size:     size,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Generate requests one base64-encoded image for prompt and returns its bytes.
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	if g.APIKey == "" {
		return nil, errors.New("portrait api key not set")
	}
	payload := map[string]any{
		"prompt":          strings.TrimSpace(prompt) + " " + promptStyle,
		"n":               1,
		"size":            g.Size,
		"model":           g.Model,
		"response_format": "b64_json",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding image request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building image request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("image generation failed: %d %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding image response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return nil, errors.New("image response carried no image data")
	}
	img, err := base64.StdEncoding.DecodeString(out.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 image: %w", err)
	}
	return img, nil
}
