// Package twitch asks Twitch which channels are live
package twitch

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/bcmk/procrastinate/internal/query"
	"github.com/bcmk/procrastinate/lib/cmdlib"
)

// DefaultLogin is queried whenever no login names are given
const DefaultLogin = "kirinokirino"

// PageSize is the maximum number of items per request
const PageSize = 100

// LiveStream is the only stream type reported
const LiveStream = "live"

// LiveStreamInfo represents a live stream
type LiveStreamInfo struct {
	DisplayName string  `json:"display_name" yaml:"display_name"`
	Game        *string `json:"game,omitempty" yaml:"game,omitempty"` // nil if unset upstream
	Viewers     int     `json:"viewers" yaml:"viewers"`
	Status      *string `json:"status,omitempty" yaml:"status,omitempty"` // stream title, nil if unset upstream
	URL         string  `json:"url" yaml:"url"`
	StreamType  string  `json:"stream_type" yaml:"stream_type"`
}

// Filter selects streams by game and language
type Filter struct {
	Game     string
	Language string
}

// API is the interface for a Twitch API version
type API interface {
	ResolveIDs(ctx context.Context, logins []string) ([]string, error)
	StreamsByIDs(ctx context.Context, ids []string) ([]LiveStreamInfo, error)
	StreamsByFilter(ctx context.Context, filter Filter) ([]LiveStreamInfo, error)
}

// Recorder accounts API requests
type Recorder interface {
	ObserveRequest(endpoint string, statusCode int)
	ObserveDecodeFailure(endpoint string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, int)   {}
func (nopRecorder) ObserveDecodeFailure(string) {}

// ErrNoIDs emerges whenever none of the channels could be resolved
var ErrNoIDs = errors.New("got no ids")

// StatusError represents a non-200 API response
type StatusError struct {
	StatusCode int
	Reason     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Reason)
}

// DecodeError represents a response that could not be parsed
type DecodeError struct {
	Endpoint string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("parsing failed for %s, %v", e.Endpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client runs stream queries against an API
type Client struct {
	api API
}

// NewClient returns a client for the API
func NewClient(api API) *Client { return &Client{api: api} }

// Live returns live streams matching the query
func (c *Client) Live(ctx context.Context, q query.Query) ([]LiveStreamInfo, error) {
	if q.Mode != query.Channels {
		cmdlib.Ldbg("querying streams by %s, game %q, language %q", q.Mode, q.Game, q.Language)
		return c.api.StreamsByFilter(ctx, Filter{Game: q.Game, Language: q.Language})
	}
	ids, err := c.api.ResolveIDs(ctx, q.Channels)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve channel ids, %w", err)
	}
	if len(ids) == 0 {
		return nil, ErrNoIDs
	}
	cmdlib.Ldbg("resolved %d ids", len(ids))
	return c.api.StreamsByIDs(ctx, ids)
}

func onlyLive(streams []LiveStreamInfo) []LiveStreamInfo {
	var live []LiveStreamInfo
	for _, s := range streams {
		if s.StreamType == LiveStream {
			live = append(live, s)
		}
	}
	return live
}

// canonicalLogins substitutes the default login for an empty list
// and brings names to canonical form
func canonicalLogins(logins []string) ([]string, error) {
	if len(logins) == 0 {
		return []string{DefaultLogin}, nil
	}
	result := make([]string, 0, len(logins))
	for _, l := range logins {
		canonical, err := CanonicalLogin(l)
		if err != nil {
			return nil, err
		}
		result = append(result, canonical)
	}
	return result, nil
}

// LoginRegexp is a regular expression to check canonical login names
var LoginRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9\-_]*$`)

// CanonicalLogin brings a login name to canonical form and validates it
func CanonicalLogin(name string) (string, error) {
	canonical := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
	if !LoginRegexp.MatchString(canonical) {
		return "", fmt.Errorf("invalid channel name %q", name)
	}
	return canonical, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
