package host

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Rect is a screen region in host-window coordinates.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Offset shifts the rect by the given origin.
func (r Rect) Offset(x, y int) Rect {
	return Rect{X: r.X + x, Y: r.Y + y, Width: r.Width, Height: r.Height}
}

// ChatResult is the chat reader's response. Some hosts return the whole
// buffer as Text, others as individual Lines.
type ChatResult struct {
	Success bool       `json:"success"`
	Text    string     `json:"text"`
	Lines   []ChatLine `json:"lines"`
}

// ChatLine is a single chat message from the host.
type ChatLine struct {
	Text string `json:"text"`
}

// JoinedText returns the chat buffer as one newline-separated string,
// preferring Text over Lines.
func (c ChatResult) JoinedText() string {
	if c.Text != "" {
		return c.Text
	}
	parts := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, "\n")
}

// Client talks to the local overlay host over its REST API: game-window
// lookup, screen capture, OCR, chat-log reads, and overlay notifications.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a host client with optional proxy support.
func NewClient(baseURL, proxyURL string) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

// WindowRect returns the game window's origin and size, or an error when
// the window is not currently visible.
func (c *Client) WindowRect(ctx context.Context) (Rect, error) {
	var rect Rect
	if err := c.getJSON(ctx, "/window", &rect); err != nil {
		return Rect{}, fmt.Errorf("window rect: %w", err)
	}
	if rect.Width <= 0 || rect.Height <= 0 {
		return Rect{}, fmt.Errorf("window rect: host reported empty window")
	}
	return rect, nil
}

// Capture grabs a screen region and returns an opaque image token usable
// with OCRRead. An empty token means nothing could be captured.
func (c *Client) Capture(ctx context.Context, r Rect) (string, error) {
	var result struct {
		Image string `json:"image"`
	}
	if err := c.postJSON(ctx, "/capture", r, &result); err != nil {
		return "", fmt.Errorf("capture: %w", err)
	}
	return result.Image, nil
}

// OCRRead runs the host's OCR over a captured image token.
func (c *Client) OCRRead(ctx context.Context, image string) (string, error) {
	payload := map[string]string{"image": image}
	var result struct {
		Text string `json:"text"`
	}
	if err := c.postJSON(ctx, "/ocr", payload, &result); err != nil {
		return "", fmt.Errorf("ocr read: %w", err)
	}
	return result.Text, nil
}

// ReadChat polls the host's chatbox reader.
func (c *Client) ReadChat(ctx context.Context) (ChatResult, error) {
	var result ChatResult
	if err := c.getJSON(ctx, "/chat", &result); err != nil {
		return ChatResult{}, fmt.Errorf("read chat: %w", err)
	}
	return result, nil
}

// Notify draws a transient overlay message. Fire-and-forget: the host sends
// no acknowledgement beyond the status code.
func (c *Client) Notify(ctx context.Context, message string, duration time.Duration) error {
	payload := map[string]any{
		"text":       message,
		"durationMs": duration.Milliseconds(),
	}
	if err := c.postJSON(ctx, "/overlay", payload, nil); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// NotifyWithRetry sends an overlay message with exponential backoff retry.
func (c *Client) NotifyWithRetry(ctx context.Context, message string, duration time.Duration, maxRetries int) error {
	var lastErr error
	for i := 0; i <= maxRetries; i++ {
		if err := c.Notify(ctx, message, duration); err != nil {
			lastErr = err
			backoff := time.Duration(1<<uint(i)) * time.Second
			log.Printf("[WARN] overlay notify failed (attempt %d/%d): %v, retrying in %v", i+1, maxRetries+1, err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
				continue
			}
		}
		return nil
	}
	return fmt.Errorf("all %d retries exhausted: %w", maxRetries+1, lastErr)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d, body: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
