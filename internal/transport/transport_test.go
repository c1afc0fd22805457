package transport_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.followtheprocess.codes/beekeeper/internal/render"
	"go.followtheprocess.codes/beekeeper/internal/transport"
	"go.followtheprocess.codes/test"
)

func TestSend(t *testing.T) {
	var (
		gotMethod string
		gotKey    string
		gotBody   string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotKey = r.Header.Get("X-Key")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 1}`)) //nolint: errcheck
	}))
	defer server.Close()

	client := transport.New(transport.Options{}, nil)

	request := render.Request{
		Method:  http.MethodPost,
		URL:     server.URL + "/widgets",
		Headers: map[string]string{"X-Key": "secret"},
		Body:    []byte(`{"name": "sprocket"}`),
	}

	got, err := client.Send(context.Background(), request)
	test.Ok(t, err)

	test.Equal(t, gotMethod, http.MethodPost)
	test.Equal(t, gotKey, "secret")
	test.Equal(t, gotBody, `{"name": "sprocket"}`)

	test.Equal(t, got.Status, http.StatusCreated)
	test.Equal(t, got.MimeType(""), "application/json")
	test.Equal(t, string(got.Body), `{"id": 1}`)
}

func TestSendErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	defer server.Close()

	client := transport.New(transport.Options{}, nil)

	got, err := client.Send(context.Background(), render.Request{Method: http.MethodGet, URL: server.URL})
	test.Ok(t, err, test.Context("error statuses are responses not errors"))
	test.Equal(t, got.Status, http.StatusTeapot)
	test.False(t, got.OK())
}

func TestNoRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved")) //nolint: errcheck
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	tests := []struct {
		name       string // Name of the test case
		want       int    // Expected status
		noRedirect bool   // Whether to disable redirects
	}{
		{name: "follow", noRedirect: false, want: http.StatusOK},
		{name: "no follow", noRedirect: true, want: http.StatusMovedPermanently},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := transport.New(transport.Options{NoRedirect: tt.noRedirect}, nil)

			got, err := client.Send(context.Background(), render.Request{Method: http.MethodGet, URL: server.URL + "/old"})
			test.Ok(t, err)
			test.Equal(t, got.Status, tt.want)
		})
	}
}

func TestCookies(t *testing.T) {
	var sent string

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie("session"); err == nil {
			sent = cookie.Value
		}
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := transport.New(transport.Options{}, nil)

	login, err := client.Send(context.Background(), render.Request{Method: http.MethodPost, URL: server.URL + "/login"})
	test.Ok(t, err)
	test.Equal(t, len(login.Cookies()), 1)

	_, err = client.Send(context.Background(), render.Request{Method: http.MethodGet, URL: server.URL + "/me"})
	test.Ok(t, err)
	test.Equal(t, sent, "abc")
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := transport.New(transport.Options{Timeout: 50 * time.Millisecond}, nil)

	_, err := client.Send(context.Background(), render.Request{Method: http.MethodGet, URL: server.URL})
	test.Err(t, err)
}
