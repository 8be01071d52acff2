package imageset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// StampLayout names the per-observation directory or URL segment.
const StampLayout = "20060102T150405"

// Retriever fetches the image set observed at a given time.
type Retriever interface {
	Retrieve(ctx context.Context, observed time.Time) (*ImageSet, error)
}

// Stamp formats an observation time for use in paths.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// ParseStamp reads a time formatted by Stamp.
func ParseStamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(StampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("observation stamp %q: %w", s, err)
	}
	return t, nil
}

// LoadObservationDir reads the image set in dir, a directory named by the
// stamp of its observation time.
func LoadObservationDir(ctx context.Context, dir string, channels []string) (*ImageSet, error) {
	dir = filepath.Clean(dir)
	observed, err := ParseStamp(filepath.Base(dir))
	if err != nil {
		return nil, err
	}
	r := &DirectoryRetriever{Root: filepath.Dir(dir), Channels: channels}
	return r.Retrieve(ctx, observed)
}

// DirectoryRetriever reads channels from <Root>/<stamp>/<channel>.<ext>.
type DirectoryRetriever struct {
	Root     string
	Channels []string
}

// Retrieve implements Retriever.
func (d *DirectoryRetriever) Retrieve(ctx context.Context, observed time.Time) (*ImageSet, error) {
	dir := filepath.Join(d.Root, Stamp(observed))
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &DataUnavailableError{Observed: observed, Source: d.Root}
		}
		return nil, err
	}

	set := New(observed)
	for _, name := range d.Channels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, ok := findChannelFile(dir, name)
		if !ok {
			return nil, &DataUnavailableError{Observed: observed, Channel: name, Source: dir}
		}
		ch, err := LoadChannel(path, name)
		if err != nil {
			return nil, err
		}
		set.Add(ch)
	}
	log.Printf("Loaded %d channels from %s", len(set.Channels), dir)
	return set, nil
}

func findChannelFile(dir, name string) (string, bool) {
	for _, ext := range SupportedFormats() {
		path := filepath.Join(dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// HTTPRetriever downloads <BaseURL>/<stamp>/<channel>.fits for each channel.
type HTTPRetriever struct {
	BaseURL  string
	Channels []string
	Client   *http.Client
}

// NewHTTPRetriever creates a retriever with a client using the given
// timeout. A zero timeout means no limit beyond the request context.
func NewHTTPRetriever(baseURL string, channels []string, timeout time.Duration) *HTTPRetriever {
	return &HTTPRetriever{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Channels: channels,
		Client:   &http.Client{Timeout: timeout},
	}
}

// Retrieve implements Retriever.
func (h *HTTPRetriever) Retrieve(ctx context.Context, observed time.Time) (*ImageSet, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	set := New(observed)
	for _, name := range h.Channels {
		url := fmt.Sprintf("%s/%s/%s.fits", strings.TrimRight(h.BaseURL, "/"), Stamp(observed), name)
		ch, err := h.fetch(ctx, client, url, name, observed)
		if err != nil {
			return nil, err
		}
		set.Add(ch)
	}
	log.Printf("Downloaded %d channels from %s", len(set.Channels), h.BaseURL)
	return set, nil
}

func (h *HTTPRetriever) fetch(ctx context.Context, client *http.Client, url, name string, observed time.Time) (*Channel, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &DataUnavailableError{Observed: observed, Channel: name, Source: h.BaseURL}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	ch, err := decodeBytes(data, name, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	ch.Path = url
	return ch, nil
}

// Source describes where images come from.
type Source struct {
	Directory string
	URL       string
	Channels  []string
	Timeout   time.Duration
}

// NewRetriever picks a directory retriever when Directory is set, otherwise
// an HTTP retriever. It fails when neither is configured.
func NewRetriever(src Source) (Retriever, error) {
	switch {
	case src.Directory != "":
		return &DirectoryRetriever{Root: src.Directory, Channels: src.Channels}, nil
	case src.URL != "":
		return NewHTTPRetriever(src.URL, src.Channels, src.Timeout), nil
	}
	return nil, errors.New("no image source configured: set retrieval.directory or retrieval.url")
}
