// Package response handles what comes back from a remote API: picking the MIME type
// to decode a body with, decoding it, and projecting values out of the decoded
// structure with a traversal [Path].
package response

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.followtheprocess.codes/beekeeper/internal/codec"
	"golang.org/x/net/html/charset"
)

// Response is a raw HTTP response as received from a transport.
type Response struct {
	Headers http.Header `json:"headers,omitempty"` // Response headers
	Body    []byte      `json:"body,omitempty"`    // The raw, undecoded body
	Status  int         `json:"status,omitempty"`  // HTTP status code
}

// StatusError is returned when a call receives an error status (400 and above).
//
// It carries the whole response so callers can still inspect the body.
type StatusError struct {
	Response Response
}

// Error implements the error interface for a [StatusError].
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected response status: %d %s", e.Response.Status, http.StatusText(e.Response.Status))
}

// OK reports whether the status is below 400.
func (r Response) OK() bool {
	return r.Status < http.StatusBadRequest
}

// MimeType returns the MIME type of the body from the Content-Type header, stripped
// of any parameters such as charset, or fallback if the header is absent.
func (r Response) MimeType(fallback string) string {
	contentType := r.Headers.Get("Content-Type")
	if contentType == "" {
		return fallback
	}

	mimetype, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mimetype))
}

// Charset returns the charset parameter of the Content-Type header, or "utf-8"
// if there isn't one.
func (r Response) Charset() string {
	_, params, found := strings.Cut(r.Headers.Get("Content-Type"), ";")
	if !found {
		return "utf-8"
	}

	for param := range strings.SplitSeq(params, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if ok && strings.EqualFold(key, "charset") {
			return strings.ToLower(strings.Trim(value, `"`))
		}
	}

	return "utf-8"
}

// Cookies returns the raw values of every Set-Cookie header.
func (r Response) Cookies() []string {
	return r.Headers.Values("Set-Cookie")
}

// Decode decodes the body using codecs, choosing the MIME type from the response
// headers and falling back to fallback.
//
// Without a path, an unknown MIME type passes the raw body through. With a path, the
// body must decode to something structured so an unknown type is an error, and the
// decoded value is traversed with path.
func (r Response) Decode(codecs *codec.Registry, fallback string, path Path) (any, error) {
	body, err := r.utf8Body()
	if err != nil {
		return nil, err
	}

	mimetype := r.MimeType(fallback)

	if len(path) == 0 {
		return codecs.Load(body, mimetype)
	}

	decoded, err := codecs.Decode(body, mimetype)
	if err != nil {
		return nil, err
	}

	return Traverse(decoded, path...)
}

// utf8Body returns the body transcoded to UTF-8 if the response declared
// some other charset.
func (r Response) utf8Body() ([]byte, error) {
	label := r.Charset()
	if label == "utf-8" || label == "utf8" || label == "us-ascii" || len(r.Body) == 0 {
		return r.Body, nil
	}

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(r.Body))
	if err != nil {
		// Unknown charsets are left for the codec to deal with
		return r.Body, nil //nolint: nilerr
	}

	transcoded, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("could not transcode %s body to utf-8: %w", label, err)
	}

	return transcoded, nil
}
