package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bcmk/procrastinate/lib/cmdlib"
)

// KrakenBaseURL is the default base URL of the Twitch v5 API
const KrakenBaseURL = "https://api.twitch.tv/kraken"

const krakenAccept = "application/vnd.twitchtv.v5+json"

// KrakenConfig represents Kraken client configuration
type KrakenConfig struct {
	HTTPClient           *http.Client
	BaseURL              string
	ClientID             string
	MaxPages             int  // the maximum number of pages for filter queries
	DegradeOnDecodeError bool // treat unparsable stream pages as empty
	Recorder             Recorder
}

// Kraken implements API over the Twitch v5 API
type Kraken struct {
	KrakenConfig
}

var _ API = &Kraken{}

type krakenUsers struct {
	Users *[]struct {
		ID string `json:"_id"`
	} `json:"users"`
}

type krakenStreams struct {
	Streams *[]krakenStream `json:"streams"`
}

type krakenStream struct {
	StreamType string  `json:"stream_type"`
	Game       *string `json:"game"`
	Viewers    int     `json:"viewers"`
	Channel    struct {
		DisplayName string  `json:"display_name"`
		Status      *string `json:"status"`
		URL         string  `json:"url"`
	} `json:"channel"`
}

// NewKraken returns a Kraken client
func NewKraken(config KrakenConfig) *Kraken {
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.BaseURL == "" {
		config.BaseURL = KrakenBaseURL
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if config.MaxPages <= 0 {
		config.MaxPages = 1
	}
	if config.Recorder == nil {
		config.Recorder = nopRecorder{}
	}
	return &Kraken{KrakenConfig: config}
}

// ResolveIDs returns channel ids for login names
func (k *Kraken) ResolveIDs(ctx context.Context, logins []string) ([]string, error) {
	logins, err := canonicalLogins(logins)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, chunk := range chunks(logins, PageSize) {
		var parsed krakenUsers
		err := k.get(ctx, "users", url.Values{"login": {strings.Join(chunk, ",")}}, &parsed)
		if err == nil && parsed.Users == nil {
			err = &DecodeError{Endpoint: "users", Err: errors.New("no users in response")}
		}
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			k.Recorder.ObserveDecodeFailure("users")
		}
		if err != nil {
			return nil, err
		}
		for _, u := range *parsed.Users {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// StreamsByIDs returns live streams of the channels
func (k *Kraken) StreamsByIDs(ctx context.Context, ids []string) ([]LiveStreamInfo, error) {
	var result []LiveStreamInfo
	for _, chunk := range chunks(ids, PageSize) {
		live, _, err := k.streamsPage(ctx, url.Values{
			"limit":   {strconv.Itoa(PageSize)},
			"channel": {strings.Join(chunk, ",")},
		})
		if err != nil {
			return nil, err
		}
		result = append(result, live...)
	}
	return result, nil
}

// StreamsByFilter returns live streams for a game and a language.
// It requests next pages while they are full up to MaxPages.
func (k *Kraken) StreamsByFilter(ctx context.Context, filter Filter) ([]LiveStreamInfo, error) {
	var result []LiveStreamInfo
	for page := 0; page < k.MaxPages; page++ {
		live, count, err := k.streamsPage(ctx, filterQuery(filter, page))
		if err != nil {
			return nil, err
		}
		result = append(result, live...)
		if count < PageSize {
			break
		}
	}
	return result, nil
}

func filterQuery(filter Filter, page int) url.Values {
	query := url.Values{
		"limit":       {strconv.Itoa(PageSize)},
		"stream_type": {LiveStream},
	}
	if filter.Game != "" {
		query.Set("game", filter.Game)
	}
	if filter.Language != "" {
		query.Set("language", filter.Language)
	}
	if page > 0 {
		query.Set("offset", strconv.Itoa(page*PageSize))
	}
	return query
}

// streamsPage returns live streams of one page and the number of all records in it
func (k *Kraken) streamsPage(ctx context.Context, query url.Values) ([]LiveStreamInfo, int, error) {
	var parsed krakenStreams
	err := k.get(ctx, "streams", query, &parsed)
	if err == nil && parsed.Streams == nil {
		err = &DecodeError{Endpoint: "streams", Err: errors.New("no streams in response")}
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		k.Recorder.ObserveDecodeFailure("streams")
		if k.DegradeOnDecodeError {
			cmdlib.Lerr("%v", err)
			return nil, 0, nil
		}
	}
	if err != nil {
		return nil, 0, err
	}
	streams := make([]LiveStreamInfo, 0, len(*parsed.Streams))
	for _, s := range *parsed.Streams {
		streams = append(streams, s.info())
	}
	return onlyLive(streams), len(*parsed.Streams), nil
}

func (s krakenStream) info() LiveStreamInfo {
	info := LiveStreamInfo{
		DisplayName: s.Channel.DisplayName,
		Viewers:     s.Viewers,
		URL:         s.Channel.URL,
		StreamType:  s.StreamType,
	}
	if s.Game != nil {
		info.Game = optional(*s.Game)
	}
	if s.Channel.Status != nil {
		info.Status = optional(*s.Channel.Status)
	}
	return info
}

func (k *Kraken) get(ctx context.Context, endpoint string, query url.Values, result interface{}) error {
	u := k.BaseURL + "/" + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Client-ID", k.ClientID)
	req.Header.Set("Accept", krakenAccept)
	req.Header.Set("Content-Type", "application/json")
	resp, err := k.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("cannot send a query, %w", err)
	}
	defer cmdlib.CloseBody(resp.Body)
	cmdlib.Ldbg("query status for %s: %d", u, resp.StatusCode)
	k.Recorder.ObserveRequest(endpoint, resp.StatusCode)
	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, Reason: reason(resp)}
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &DecodeError{Endpoint: endpoint, Err: err}
	}
	return nil
}

func reason(resp *http.Response) string {
	r := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" ")
	if r == "" || r == resp.Status {
		return http.StatusText(resp.StatusCode)
	}
	return r
}
