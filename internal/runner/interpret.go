package runner

import (
	"fmt"
	"strings"

	"sheetcheck/internal/httpclient"
	"sheetcheck/internal/value"
)

const previewLimit = 200

// interpret builds the result tree validations and actions resolve paths
// against: code, headers, cookies, body, elapsed_time_ms. The body shape
// depends on the declared content type.
func interpret(resp *httpclient.Response) value.Value {
	return value.Map(map[string]value.Value{
		"code":            value.Number(float64(resp.StatusCode)),
		"headers":         value.StringMap(resp.Headers),
		"cookies":         value.StringMap(resp.Cookies),
		"body":            interpretBody(resp.ContentType, resp.Body),
		"elapsed_time_ms": value.Number(float64(resp.Elapsed.Microseconds()) / 1000),
	})
}

func interpretBody(contentType string, body []byte) value.Value {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.IndexByte(mediaType, ';'); idx >= 0 {
		mediaType = strings.TrimSpace(mediaType[:idx])
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		parsed, err := value.FromJSON(body)
		if err != nil {
			return value.Map(map[string]value.Value{
				"decoding_error":    value.String(fmt.Sprintf("invalid JSON: %v", err)),
				"raw_response_text": value.String(string(body)),
			})
		}
		return parsed
	case strings.HasPrefix(mediaType, "text/"):
		return value.Map(map[string]value.Value{
			"text": value.String(string(body)),
		})
	default:
		return value.Map(map[string]value.Value{
			"content_type":    value.String(contentType),
			"content_preview": value.String(textPreview(body, previewLimit)),
		})
	}
}

// textPreview renders arbitrary bytes as printable text, truncated to at most
// limit characters.
func textPreview(body []byte, limit int) string {
	text := strings.ToValidUTF8(string(body), "�")
	var sb strings.Builder
	count := 0
	for _, r := range text {
		if count >= limit {
			break
		}
		if r == '\n' || r == '\t' || (r >= 0x20 && r != 0x7f) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('.')
		}
		count++
	}
	return sb.String()
}
