package layout

import (
	"bytes"
	"net/http"
	"strings"
)

// responseBuffer captures a child handler's response so the shell can decide
// whether to wrap it.
type responseBuffer struct {
	header      http.Header
	statusCode  int
	body        bytes.Buffer
	headerWrote bool
}

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{
		header:     make(http.Header),
		statusCode: http.StatusOK,
	}
}

func (w *responseBuffer) Header() http.Header {
	return w.header
}

func (w *responseBuffer) WriteHeader(status int) {
	if w.headerWrote {
		return
	}
	w.headerWrote = true
	w.statusCode = status
}

func (w *responseBuffer) Write(body []byte) (int, error) {
	if !w.headerWrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.body.Write(body)
}

// wrappable reports whether the captured response is an HTML body. Error
// pages rendered as HTML are wrapped; redirects and plain-text errors are not.
func (w *responseBuffer) wrappable() bool {
	if w.statusCode < http.StatusOK || w.statusCode == http.StatusNoContent {
		return false
	}
	if w.statusCode >= http.StatusMultipleChoices && w.statusCode < http.StatusBadRequest {
		return false
	}
	if w.body.Len() == 0 {
		return false
	}
	contentType := strings.ToLower(w.header.Get("Content-Type"))
	return contentType == "" || strings.HasPrefix(contentType, "text/html")
}

// flush writes the captured response through unchanged.
func (w *responseBuffer) flush(dst http.ResponseWriter) {
	copyHeaders(dst.Header(), w.header)
	dst.WriteHeader(w.statusCode)
	_, _ = dst.Write(w.body.Bytes())
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if strings.EqualFold(key, "Set-Cookie") {
			for _, value := range values {
				dst.Add(key, value)
			}
			continue
		}
		for _, value := range values {
			dst.Set(key, value)
		}
	}
}
