// Package source retrieves raw endpoint payloads from a p2pool api
// directory, either on the local filesystem or over HTTP.
package source

import (
	"errors"
	"fmt"
	"git.gammaspectra.live/P2Pool/p2pool-stats/stats"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"
)

var (
	// ErrSourceUnavailable wraps I/O, network and HTTP status failures.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrMalformedPayload wraps JSON decode failures.
	ErrMalformedPayload = errors.New("malformed payload")
)

type Mode int

const (
	ModeLocal = Mode(iota)
	ModeRemote
)

// Source resolves endpoint paths against a fixed base location and fetches
// one payload per call. No retries; one attempt per Fetch.
type Source struct {
	base   string
	mode   Mode
	client *http.Client
}

// NewSource validates the base location and returns a Source for it. In local
// mode the base must be an existing directory; in remote mode it must be an
// absolute URL with scheme and host.
func NewSource(base string, remote bool) (*Source, error) {
	if remote {
		return NewRemote(base)
	}
	return NewLocal(base)
}

func NewLocal(dir string) (*Source, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid api path %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("invalid api path %q: not a directory", dir)
	}
	return &Source{
		base: dir,
		mode: ModeLocal,
	}, nil
}

func NewRemote(baseURL string) (*Source, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host required", baseURL)
	}
	return &Source{
		base: baseURL,
		mode: ModeRemote,
		client: &http.Client{
			Timeout: time.Second * 15,
		},
	}, nil
}

func (s *Source) Mode() Mode {
	return s.mode
}

func (s *Source) Base() string {
	return s.base
}

// Fetch retrieves and decodes one endpoint payload, capturing the retrieval
// time.
func (s *Source) Fetch(e stats.Endpoint) (*stats.Snapshot, error) {
	buf, err := s.fetchRaw(e.Path())
	if err != nil {
		return nil, err
	}
	snapshot, err := stats.NewSnapshot(e, time.Now(), buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrMalformedPayload, e.Path(), err)
	}
	return snapshot, nil
}

func (s *Source) fetchRaw(endpointPath string) ([]byte, error) {
	if s.mode == ModeRemote {
		response, err := s.client.Get(s.base + "/" + endpointPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrSourceUnavailable, endpointPath, err)
		}
		defer response.Body.Close()
		if response.StatusCode < 200 || response.StatusCode > 299 {
			return nil, fmt.Errorf("%w: %s: status %d", ErrSourceUnavailable, endpointPath, response.StatusCode)
		}
		buf, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s", ErrSourceUnavailable, endpointPath, err)
		}
		return buf, nil
	}

	buf, err := os.ReadFile(path.Join(s.base, endpointPath))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrSourceUnavailable, endpointPath, err)
	}
	return buf, nil
}
