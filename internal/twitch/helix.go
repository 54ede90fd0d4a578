package twitch

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/bcmk/procrastinate/lib/cmdlib"
	"github.com/nicklaw5/helix"
)

// ChannelURLPrefix is prepended to a login to get a channel page URL
const ChannelURLPrefix = "https://www.twitch.tv/"

// HelixConfig represents Helix client configuration
type HelixConfig struct {
	HTTPClient     *http.Client
	ClientID       string
	ClientSecret   string
	AppAccessToken string // requested with the client secret if empty
	MaxPages       int    // the maximum number of pages for filter queries
	Recorder       Recorder
}

// Helix implements API over the Twitch Helix API
type Helix struct {
	HelixConfig
	client *helix.Client
}

var _ API = &Helix{}

// NewHelix returns a Helix client
func NewHelix(config HelixConfig) (*Helix, error) {
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}
	if config.MaxPages <= 0 {
		config.MaxPages = 1
	}
	if config.Recorder == nil {
		config.Recorder = nopRecorder{}
	}
	client, err := helix.NewClient(&helix.Options{
		ClientID:       config.ClientID,
		ClientSecret:   config.ClientSecret,
		AppAccessToken: config.AppAccessToken,
		HTTPClient:     config.HTTPClient,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create new twitch client, %w", err)
	}
	return &Helix{HelixConfig: config, client: client}, nil
}

// ResolveIDs returns channel ids for login names
func (h *Helix) ResolveIDs(ctx context.Context, logins []string) ([]string, error) {
	logins, err := canonicalLogins(logins)
	if err != nil {
		return nil, err
	}
	if err := h.authorize(ctx); err != nil {
		return nil, err
	}
	var ids []string
	for _, chunk := range chunks(logins, PageSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		usersResponse, err := h.client.GetUsers(&helix.UsersParams{Logins: chunk})
		if err != nil {
			return nil, fmt.Errorf("negotiation error on getting users, %w", err)
		}
		if err := h.check("users", usersResponse.ResponseCommon); err != nil {
			return nil, err
		}
		for _, u := range usersResponse.Data.Users {
			ids = append(ids, u.ID)
		}
	}
	return ids, nil
}

// StreamsByIDs returns live streams of the channels
func (h *Helix) StreamsByIDs(ctx context.Context, ids []string) ([]LiveStreamInfo, error) {
	if err := h.authorize(ctx); err != nil {
		return nil, err
	}
	var result []LiveStreamInfo
	for _, chunk := range chunks(ids, PageSize) {
		live, _, err := h.streamsPage(ctx, &helix.StreamsParams{
			First:   PageSize,
			UserIDs: chunk,
		})
		if err != nil {
			return nil, err
		}
		result = append(result, live...)
	}
	return result, nil
}

// StreamsByFilter returns live streams for a game and a language.
// It follows the pagination cursor up to MaxPages.
func (h *Helix) StreamsByFilter(ctx context.Context, filter Filter) ([]LiveStreamInfo, error) {
	if err := h.authorize(ctx); err != nil {
		return nil, err
	}
	params := &helix.StreamsParams{
		First: PageSize,
		Type:  LiveStream,
	}
	if filter.Game != "" {
		gameID, err := h.gameID(ctx, filter.Game)
		if err != nil {
			return nil, err
		}
		if gameID == "" {
			cmdlib.Linf("game %q not found", filter.Game)
			return nil, nil
		}
		params.GameIDs = []string{gameID}
	}
	if filter.Language != "" {
		params.Language = []string{filter.Language}
	}
	var result []LiveStreamInfo
	for page := 0; page < h.MaxPages; page++ {
		live, cursor, err := h.streamsPage(ctx, params)
		if err != nil {
			return nil, err
		}
		result = append(result, live...)
		if cursor == "" {
			break
		}
		params.After = cursor
	}
	return result, nil
}

func (h *Helix) gameID(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	gamesResponse, err := h.client.GetGames(&helix.GamesParams{Names: []string{name}})
	if err != nil {
		return "", fmt.Errorf("negotiation error on getting games, %w", err)
	}
	if err := h.check("games", gamesResponse.ResponseCommon); err != nil {
		return "", err
	}
	if len(gamesResponse.Data.Games) == 0 {
		return "", nil
	}
	return gamesResponse.Data.Games[0].ID, nil
}

// streamsPage returns live streams of one page and the cursor of the next one
func (h *Helix) streamsPage(ctx context.Context, params *helix.StreamsParams) ([]LiveStreamInfo, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	streamsResponse, err := h.client.GetStreams(params)
	if err != nil {
		return nil, "", fmt.Errorf("negotiation error on getting streams, %w", err)
	}
	if err := h.check("streams", streamsResponse.ResponseCommon); err != nil {
		return nil, "", err
	}
	streams := make([]LiveStreamInfo, 0, len(streamsResponse.Data.Streams))
	for _, s := range streamsResponse.Data.Streams {
		streams = append(streams, helixInfo(s))
	}
	cursor := streamsResponse.Data.Pagination.Cursor
	if len(streamsResponse.Data.Streams) < PageSize {
		cursor = ""
	}
	return onlyLive(streams), cursor, nil
}

func helixInfo(s helix.Stream) LiveStreamInfo {
	return LiveStreamInfo{
		DisplayName: s.UserName,
		Game:        optional(s.GameName),
		Viewers:     s.ViewerCount,
		Status:      optional(s.Title),
		URL:         ChannelURLPrefix + strings.ToLower(s.UserLogin),
		StreamType:  s.Type,
	}
}

func (h *Helix) authorize(ctx context.Context) error {
	if h.AppAccessToken != "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	accessResponse, err := requestAppAccessToken(h.client)
	if err != nil {
		return err
	}
	h.AppAccessToken = accessResponse.Data.AccessToken
	h.client.SetAppAccessToken(h.AppAccessToken)
	return nil
}

func requestAppAccessToken(helixClient *helix.Client) (*helix.AppAccessTokenResponse, error) {
	accessResponse, err := helixClient.RequestAppAccessToken(nil)
	if err != nil {
		return nil, fmt.Errorf("negotiation error on requesting an access token, %w", err)
	}
	if accessResponse.ErrorMessage != "" {
		return nil, fmt.Errorf("Twitch returns an error on requesting an access token, %s", accessResponse.ErrorMessage) //nolint:staticcheck
	}
	return accessResponse, nil
}

func (h *Helix) check(endpoint string, response helix.ResponseCommon) error {
	h.Recorder.ObserveRequest(endpoint, response.StatusCode)
	cmdlib.Ldbg("query status for %s: %d", endpoint, response.StatusCode)
	if response.StatusCode == http.StatusOK {
		return nil
	}
	reason := strings.TrimSpace(response.Error + " " + response.ErrorMessage)
	if reason == "" {
		reason = http.StatusText(response.StatusCode)
	}
	return &StatusError{StatusCode: response.StatusCode, Reason: reason}
}
