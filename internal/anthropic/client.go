// Package anthropic is a minimal client for the Anthropic Messages API,
// covering the two call shapes this service needs: one blocking completion
// and one SSE-streamed completion.
package anthropic

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	apiVersion       = "2023-06-01"
	defaultTimeout   = 120 * time.Second
	streamingTimeout = 300 * time.Second
)

// Message is one chat turn in the Messages API format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client communicates with the Anthropic API over HTTP.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client with the given API key.
func New(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			// Per-request deadlines come from context timeouts.
			Timeout: 0,
		},
	}
}

// NewWithBaseURL creates a client pointing at a custom base URL (for testing).
func NewWithBaseURL(apiKey, baseURL string) *Client {
	c := New(apiKey)
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// messageRequest is the JSON body for POST /v1/messages.
type messageRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream,omitempty"`
}

// contentBlock is one element of a non-streaming response's content array.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// messageResponse is the JSON returned by POST /v1/messages (non-streaming).
type messageResponse struct {
	Content []contentBlock `json:"content"`
}

// Complete sends a blocking messages request and returns the text content of
// the response.
func (c *Client) Complete(ctx context.Context, model, system string, messages []Message, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	resp, err := c.post(ctx, messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding messages response: %w", err)
	}

	var sb strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String(), nil
}

// streamEvent is one SSE data payload of a streaming response. Only the
// text-delta fields are decoded; other event types are skipped.
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// Stream sends a streaming messages request, invoking onText for each text
// delta as it arrives (pass nil to ignore). It returns the full accumulated
// text once the stream terminates.
func (c *Client) Stream(ctx context.Context, model, system string, messages []Message, maxTokens int, onText func(string)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, streamingTimeout)
	defer cancel()

	resp, err := c.post(ctx, messageRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
		Stream:    true,
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			continue
		}
		if ev.Type == "message_stop" {
			break
		}
		if ev.Type == "content_block_delta" && ev.Delta.Type == "text_delta" {
			sb.WriteString(ev.Delta.Text)
			if onText != nil {
				onText(ev.Delta.Text)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return sb.String(), fmt.Errorf("reading stream: %w", err)
	}

	return sb.String(), nil
}

func (c *Client) post(ctx context.Context, mr messageRequest) (*http.Response, error) {
	body, err := json.Marshal(mr)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("messages request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("messages: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return resp, nil
}
