package runner

import (
	"strings"
	"testing"
	"time"

	"sheetcheck/internal/httpclient"
	"sheetcheck/internal/value"
)

func TestInterpretJSONBody(t *testing.T) {
	resp := &httpclient.Response{
		StatusCode:  200,
		Headers:     map[string]string{"Content-Type": "application/json"},
		Cookies:     map[string]string{"session": "tok"},
		Body:        []byte(`{"status": "success", "data": {"id": 42}}`),
		ContentType: "application/json; charset=utf-8",
		Elapsed:     1500 * time.Microsecond,
	}

	result := interpret(resp)

	checks := []struct {
		path string
		want string
	}{
		{"result.code", "200"},
		{"result.headers.Content-Type", "application/json"},
		{"result.cookies.session", "tok"},
		{"result.body.status", "success"},
		{"result.body.data.id", "42"},
		{"result.elapsed_time_ms", "1.5"},
	}
	for _, tc := range checks {
		got, err := value.Resolve(result, tc.path)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", tc.path, err)
		}
		if got.Text() != tc.want {
			t.Errorf("Resolve(%q).Text() = %q, want %q", tc.path, got.Text(), tc.want)
		}
	}
}

func TestInterpretJSONSuffixType(t *testing.T) {
	resp := &httpclient.Response{ContentType: "application/problem+json", Body: []byte(`{"title": "nope"}`)}
	result := interpret(resp)
	got, err := value.Resolve(result, "result.body.title")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Text() != "nope" {
		t.Errorf("title = %q", got.Text())
	}
}

func TestInterpretInvalidJSONRecordsDecodingError(t *testing.T) {
	resp := &httpclient.Response{ContentType: "application/json", Body: []byte(`{"broken`)}
	result := interpret(resp)

	if _, err := value.Resolve(result, "result.body.decoding_error"); err != nil {
		t.Fatalf("decoding_error missing: %v", err)
	}
	raw, err := value.Resolve(result, "result.body.raw_response_text")
	if err != nil {
		t.Fatalf("raw_response_text missing: %v", err)
	}
	if raw.Text() != `{"broken` {
		t.Errorf("raw_response_text = %q", raw.Text())
	}
}

func TestInterpretTextBody(t *testing.T) {
	resp := &httpclient.Response{ContentType: "text/plain", Body: []byte("hello world")}
	result := interpret(resp)
	got, err := value.Resolve(result, "result.body.text")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Text() != "hello world" {
		t.Errorf("text = %q", got.Text())
	}
}

func TestInterpretBinaryBodyPreview(t *testing.T) {
	body := append([]byte{0x00, 0x01}, []byte(strings.Repeat("x", 400))...)
	resp := &httpclient.Response{ContentType: "application/octet-stream", Body: body}
	result := interpret(resp)

	ct, err := value.Resolve(result, "result.body.content_type")
	if err != nil {
		t.Fatalf("content_type missing: %v", err)
	}
	if ct.Text() != "application/octet-stream" {
		t.Errorf("content_type = %q", ct.Text())
	}
	preview, err := value.Resolve(result, "result.body.content_preview")
	if err != nil {
		t.Fatalf("content_preview missing: %v", err)
	}
	text := preview.Text()
	if len([]rune(text)) != previewLimit {
		t.Errorf("preview length = %d, want %d", len([]rune(text)), previewLimit)
	}
	if !strings.HasPrefix(text, "..xx") {
		t.Errorf("control bytes should render as dots, got %q", text[:4])
	}
}
