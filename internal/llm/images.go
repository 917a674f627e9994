package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultImageBase = "https://api.openai.com/v1"

// ImageClient generates images through an OpenAI-compatible
// images endpoint.
type ImageClient struct {
	apiKey string
	base   string
	client *http.Client
}

// NewImages creates an image client. An empty base selects the OpenAI
// endpoint.
func NewImages(apiKey, base string) *ImageClient {
	if base == "" {
		base = defaultImageBase
	}
	return &ImageClient{
		apiKey: apiKey,
		base:   strings.TrimSuffix(base, "/"),
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Generate renders a prompt and returns the hosted image URL.
func (c *ImageClient) Generate(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("empty prompt")
	}

	payload, err := json.Marshal(map[string]any{
		"model":           "dall-e-3",
		"prompt":          prompt,
		"n":               1,
		"size":            "1024x1024",
		"response_format": "url",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/images/generations", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse image response: %w", err)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return "", fmt.Errorf("no image returned")
	}
	return out.Data[0].URL, nil
}
