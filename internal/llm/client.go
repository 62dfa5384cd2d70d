// Package llm provides the streaming text-generation client for agent
// cognition and dialogue. All calls go through one entry point that renders a
// named template, streams the completion, sanitizes the output, and falls
// back to a caller-supplied default on any failure.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/talgya/ai-town/internal/config"
)

// Client wraps an ollama-compatible /generate endpoint.
type Client struct {
	baseURL    string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	ring       *Ring
}

// NewClient creates a streaming client. Returns nil when the endpoint is
// empty (LLM features disabled; every call yields its fallback).
func NewClient(cfg config.LLM) *Client {
	if cfg.Endpoint == "" {
		return nil
	}
	return &Client{
		baseURL: cfg.Endpoint,
		model:   cfg.Model,
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		// Per-call deadlines come from the context; the transport itself
		// stays unbounded so long streams are not cut mid-generation.
		httpClient: &http.Client{},
		ring:       NewRing(cfg.LogCapacity),
	}
}

// Enabled reports whether the client can reach a model.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Log exposes the bounded call log.
func (c *Client) Log() *Ring {
	if c == nil {
		return nil
	}
	return c.ring
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// generate streams a completion and concatenates the partial responses until
// the done flag.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: true})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate status %d", resp.StatusCode)
	}

	var full bytes.Buffer
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		full.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("stream read: %w", err)
	}
	return full.String(), nil
}

// Text renders the template named by key, runs the completion, and returns
// the sanitized plain-text result. Any failure returns fallback; errors never
// propagate.
func (c *Client) Text(ctx context.Context, key string, args []string, instruction, fallback string) string {
	if !c.Enabled() {
		return fallback
	}
	prompt, err := Render(key, args)
	if err != nil {
		slog.Warn("template render failed", "key", key, "err", err)
		return fallback
	}
	prompt = prompt + "\n" + instruction + " 請務必使用繁體中文（Traditional Chinese）回答。"

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		slog.Warn("llm call failed", "key", key, "err", err)
		c.ring.Add(CallRecord{Key: key, Prompt: prompt, Raw: err.Error(), Parsed: fallback})
		return fallback
	}
	out := Sanitize(stripText(raw))
	if out == "" {
		out = fallback
	}
	c.ring.Add(CallRecord{Key: key, Prompt: prompt, Raw: raw, Parsed: out})
	return out
}

// Object renders the template named by key with a JSON-coercion suffix built
// from example, runs the completion, extracts the JSON payload, sanitizes all
// string leaves, and unmarshals into out. Returns false when no usable payload
// was decoded and the caller should use its default; a payload of the wrong
// shape can leave out partially filled.
func (c *Client) Object(ctx context.Context, key string, args []string, instruction string, example, out any) bool {
	if !c.Enabled() {
		return false
	}
	prompt, err := Render(key, args)
	if err != nil {
		slog.Warn("template render failed", "key", key, "err", err)
		return false
	}
	prompt = wrapJSON(prompt, instruction, example)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		slog.Warn("llm call failed", "key", key, "err", err)
		c.ring.Add(CallRecord{Key: key, Prompt: prompt, Raw: err.Error(), Parsed: "(default)"})
		return false
	}

	parsed, ok := extractJSON(raw)
	if !ok {
		c.ring.Add(CallRecord{Key: key, Prompt: prompt, Raw: raw, Parsed: "(unparseable)"})
		return false
	}
	parsed = sanitizeValue(parsed)

	buf, err := json.Marshal(parsed)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(buf, out); err != nil {
		c.ring.Add(CallRecord{Key: key, Prompt: prompt, Raw: raw, Parsed: "(shape mismatch)"})
		return false
	}
	c.ring.Add(CallRecord{Key: key, Prompt: prompt, Raw: raw, Parsed: string(buf)})
	return true
}

// wrapJSON wraps a rendered prompt so the model answers with a single JSON
// object keyed "output", mirroring the example.
func wrapJSON(prompt, instruction string, example any) string {
	ex, err := json.Marshal(map[string]any{"output": example})
	if err != nil {
		ex = []byte(`{"output": null}`)
	}
	return "\"\"\"\n" + prompt + "\n\"\"\"\n" +
		"Output the response to the prompt above in json. " + instruction +
		" 請務必使用繁體中文（Traditional Chinese）回答。\n" +
		"Example output json\n```json\n" + string(ex) + "\n```"
}
