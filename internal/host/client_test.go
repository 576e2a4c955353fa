package host

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_WindowRect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/window" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(Rect{X: 10, Y: 20, Width: 800, Height: 600})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	rect, err := c.WindowRect(context.Background())
	if err != nil {
		t.Fatalf("WindowRect: %v", err)
	}
	if rect.X != 10 || rect.Width != 800 {
		t.Errorf("rect = %+v", rect)
	}
}

func TestClient_WindowRect_EmptyWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Rect{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if _, err := c.WindowRect(context.Background()); err == nil {
		t.Error("expected error for empty window rect")
	}
}

func TestClient_CaptureAndOCR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/capture":
			var rect Rect
			if err := json.NewDecoder(r.Body).Decode(&rect); err != nil {
				t.Errorf("decode capture body: %v", err)
			}
			if rect.Width != 400 {
				t.Errorf("capture width = %d, want 400", rect.Width)
			}
			json.NewEncoder(w).Encode(map[string]string{"image": "img-1"})
		case "/ocr":
			json.NewEncoder(w).Encode(map[string]string{"text": "Yew logs\n450 gp\n432 gp"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	img, err := c.Capture(context.Background(), Rect{X: 400, Y: 150, Width: 400, Height: 300})
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if img != "img-1" {
		t.Errorf("image token = %q", img)
	}
	text, err := c.OCRRead(context.Background(), img)
	if err != nil {
		t.Fatalf("OCRRead: %v", err)
	}
	if text == "" {
		t.Error("expected OCR text")
	}
}

func TestChatResult_JoinedText(t *testing.T) {
	res := ChatResult{Lines: []ChatLine{{Text: "line one"}, {Text: "line two"}}}
	if got := res.JoinedText(); got != "line one\nline two" {
		t.Errorf("JoinedText = %q", got)
	}
	res.Text = "whole buffer"
	if got := res.JoinedText(); got != "whole buffer" {
		t.Errorf("JoinedText = %q, want Text preferred", got)
	}
}

func TestClient_Notify(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/overlay" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	if err := c.Notify(context.Background(), "Orders linked!", 1500*time.Millisecond); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if got["text"] != "Orders linked!" {
		t.Errorf("text = %v", got["text"])
	}
	if got["durationMs"] != float64(1500) {
		t.Errorf("durationMs = %v", got["durationMs"])
	}
}

func TestRect_Offset(t *testing.T) {
	r := Rect{X: 400, Y: 150, Width: 400, Height: 300}.Offset(10, 20)
	if r.X != 410 || r.Y != 170 {
		t.Errorf("offset rect = %+v", r)
	}
}
