package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// JSONAttempt is a tagged union over whether a response body parsed as
// JSON: Value is only meaningful when IsJSON is true.
type JSONAttempt struct {
	Value  any
	IsJSON bool
}

// Response is what a request executes into, whether or not it was
// actually sent: a dry run produces one with NotExecuted set and every
// other field zero.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Text       string
	JSON       JSONAttempt
	MimeType   string
	Charset    string
	Duration   time.Duration

	// NotExecuted is true when this Response was produced by a
	// --dry-run pass instead of an actual transport call.
	NotExecuted bool
}

func newResponse(statusCode int, status string, headers http.Header, body []byte, duration time.Duration, notExecuted bool) *Response {
	r := &Response{
		StatusCode:  statusCode,
		Status:      status,
		Headers:     headers,
		Body:        body,
		Text:        string(body),
		Duration:    duration,
		NotExecuted: notExecuted,
	}
	r.MimeType, r.Charset = splitContentType(headers.Get("Content-Type"))
	if len(body) > 0 && gjson.ValidBytes(body) {
		r.JSON = JSONAttempt{Value: gjson.ParseBytes(body).Value(), IsJSON: true}
	}
	return r
}

func splitContentType(contentType string) (mimeType, charset string) {
	parts := strings.Split(contentType, ";")
	mimeType = strings.TrimSpace(parts[0])
	for _, p := range parts[1:] {
		p = strings.TrimSpace(p)
		if strings.HasPrefix(strings.ToLower(p), "charset=") {
			charset = strings.TrimSpace(p[len("charset="):])
		}
	}
	return mimeType, charset
}

func (r *Response) BodyString() string {
	return r.Text
}

// Header returns the first value of name, matched case-insensitively.
func (r *Response) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers.Get(name)
}

// HeaderValues returns every value of name, in the order the server sent them.
func (r *Response) HeaderValues(name string) []string {
	if r.Headers == nil {
		return nil
	}
	return r.Headers.Values(name)
}

func (r *Response) ContentType() string {
	return r.MimeType
}

func (r *Response) IsJSON() bool {
	return r.JSON.IsJSON
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
