package hive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"go.followtheprocess.codes/log"
)

var (
	// ErrHiveUnavailable is returned when a hive can't be read from its location.
	ErrHiveUnavailable = errors.New("hive unavailable")

	// ErrVersionNotFound is returned when a hive doesn't list the requested version.
	ErrVersionNotFound = errors.New("hive version not found")

	// ErrInsecure is returned when asked to fetch a hive over plain http without
	// [AllowInsecure].
	ErrInsecure = errors.New("refusing to fetch hive over insecure http")
)

// DefaultFetchTimeout bounds fetching a remote hive when no client is given.
const DefaultFetchTimeout = 30 * time.Second

// MaxSize caps the size of a remote hive document in bytes.
const MaxSize = 10 << 20

// Loader opens hives from local files or http(s) URLs.
type Loader struct {
	client        *http.Client // Client used for remote hives
	logger        *log.Logger  // Debug logs go here
	allowInsecure bool         // Permit plain http locations
}

// Option is a functional option for a [Loader].
type Option func(*Loader)

// WithClient sets the HTTP client used to fetch remote hives.
func WithClient(client *http.Client) Option {
	return func(l *Loader) {
		if client != nil {
			l.client = client
		}
	}
}

// WithLogger sets the logger the loader writes debug information to.
func WithLogger(logger *log.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// AllowInsecure permits fetching hives over plain http.
func AllowInsecure() Option {
	return func(l *Loader) {
		l.allowInsecure = true
	}
}

// NewLoader returns a [Loader] configured with options.
func NewLoader(options ...Option) *Loader {
	loader := &Loader{
		client: &http.Client{Timeout: DefaultFetchTimeout},
		logger: log.New(io.Discard),
	}

	for _, option := range options {
		option(loader)
	}

	return loader
}

// Open loads the hive at location, which is either a file path or an http(s) URL.
//
// If version is non-empty and isn't the version of the hive found there, the hive's
// previous versions are searched for it and that version is loaded instead.
func (l *Loader) Open(ctx context.Context, location string, version Version) (Hive, error) {
	hive, err := l.load(ctx, location)
	if err != nil {
		return Hive{}, err
	}

	if version == "" || hive.Version().Equal(version) {
		return hive, nil
	}

	previous, err := hive.Location(version)
	if err != nil {
		return Hive{}, err
	}

	l.logger.Debug("Following previous hive version", "version", version, "location", previous)

	return l.load(ctx, previous)
}

// load reads and decodes a single hive document.
func (l *Loader) load(ctx context.Context, location string) (Hive, error) {
	var (
		data        []byte
		contentType string
		err         error
	)

	start := time.Now()

	if isRemote(location) {
		data, contentType, err = l.fetch(ctx, location)
	} else {
		data, err = os.ReadFile(location)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrHiveUnavailable, err)
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("%w: %s does not exist", ErrHiveUnavailable, location)
			}
		}
	}

	if err != nil {
		return Hive{}, err
	}

	format := DetectFormat(location, contentType)

	l.logger.Debug(
		"Loaded hive",
		"location", location,
		"format", format,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	hive, err := Parse(data, format)
	if err != nil {
		return Hive{}, fmt.Errorf("%s: %w", location, err)
	}

	return hive, nil
}

// fetch downloads a remote hive, returning its body and Content-Type.
func (l *Loader) fetch(ctx context.Context, location string) ([]byte, string, error) {
	if strings.HasPrefix(strings.ToLower(location), "http://") && !l.allowInsecure {
		return nil, "", fmt.Errorf("%w: %s", ErrInsecure, location)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrHiveUnavailable, err)
	}

	request.Header.Set("Accept", "application/json, application/yaml;q=0.9")

	response, err := l.client.Do(request)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrHiveUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: GET %s returned %s", ErrHiveUnavailable, location, response.Status)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: could not read %s: %w", ErrHiveUnavailable, location, err)
	}

	if len(data) > MaxSize {
		return nil, "", fmt.Errorf("%w: %s is larger than %d bytes", ErrHiveUnavailable, location, MaxSize)
	}

	return data, response.Header.Get("Content-Type"), nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
