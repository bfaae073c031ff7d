// Package xtream is a client for Xtream-compatible IPTV panel APIs
// (player_api.php): account info, live/VOD/series catalogs, and EPG data.
package xtream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-querystring/query"

	"github.com/kevincornish/xtream-loader/pkg/robusthttp"
)

type Client struct {
	BaseURL  string
	Username string
	Password string
	HTTP     *http.Client
}

func NewClient(baseURL, username, password string) *Client {
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		Username: username,
		Password: password,
		HTTP:     robusthttp.NewClient(),
	}
}

type apiParams struct {
	Username   string `url:"username"`
	Password   string `url:"password"`
	Action     string `url:"action,omitempty"`
	CategoryID int    `url:"category_id,omitempty"`
	SeriesID   int    `url:"series_id,omitempty"`
	VodID      int    `url:"vod_id,omitempty"`
	StreamID   int    `url:"stream_id,omitempty"`
}

func (c *Client) get(ctx context.Context, params apiParams, out any) error {
	params.Username = c.Username
	params.Password = c.Password
	vals, err := query.Values(params)
	if err != nil {
		return fmt.Errorf("building query for %q: %w", params.Action, err)
	}

	u := fmt.Sprintf("%s/player_api.php?%s", c.BaseURL, vals.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("upstream request %q: %w", params.Action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) // nolint:errcheck
		return fmt.Errorf("upstream status %d for action %q", resp.StatusCode, params.Action)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %q response: %w", params.Action, err)
	}
	return nil
}

// AccountInfo fetches subscription and server details. This is also the
// upstream's auth check: Auth is zero for bad credentials.
func (c *Client) AccountInfo(ctx context.Context) (*AccountInfo, error) {
	var info AccountInfo
	if err := c.get(ctx, apiParams{}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) LiveCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.get(ctx, apiParams{Action: "get_live_categories"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// LiveStreams lists the channels in one category; categoryID 0 lists the
// whole catalog.
func (c *Client) LiveStreams(ctx context.Context, categoryID int) ([]LiveStream, error) {
	var streams []LiveStream
	if err := c.get(ctx, apiParams{Action: "get_live_streams", CategoryID: categoryID}, &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

func (c *Client) SeriesCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.get(ctx, apiParams{Action: "get_series_categories"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// SeriesByCategory lists series in one category; categoryID 0 lists all.
func (c *Client) SeriesByCategory(ctx context.Context, categoryID int) ([]Series, error) {
	var series []Series
	if err := c.get(ctx, apiParams{Action: "get_series", CategoryID: categoryID}, &series); err != nil {
		return nil, err
	}
	return series, nil
}

func (c *Client) SeriesInfo(ctx context.Context, seriesID int) (*SeriesInfo, error) {
	var info SeriesInfo
	if err := c.get(ctx, apiParams{Action: "get_series_info", SeriesID: seriesID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) VodCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.get(ctx, apiParams{Action: "get_vod_categories"}, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// VodStreams lists films in one category; categoryID 0 lists all.
func (c *Client) VodStreams(ctx context.Context, categoryID int) ([]VodStream, error) {
	var streams []VodStream
	if err := c.get(ctx, apiParams{Action: "get_vod_streams", CategoryID: categoryID}, &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

func (c *Client) VodInfo(ctx context.Context, vodID int) (*VodInfo, error) {
	var info VodInfo
	if err := c.get(ctx, apiParams{Action: "get_vod_info", VodID: vodID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// EPG fetches the short-form programme table for one live stream.
func (c *Client) EPG(ctx context.Context, streamID int) (*EPG, error) {
	var epg EPG
	if err := c.get(ctx, apiParams{Action: "get_simple_data_table", StreamID: streamID}, &epg); err != nil {
		return nil, err
	}
	return &epg, nil
}

// LivePlayLink builds the direct .ts URL for a live channel.
func (c *Client) LivePlayLink(streamID int) string {
	return fmt.Sprintf("%s/live/%s/%s/%d.ts", c.BaseURL, c.Username, c.Password, streamID)
}

// MoviePlayLink builds the direct URL for a film.
func (c *Client) MoviePlayLink(streamID int, ext string) string {
	return fmt.Sprintf("%s/movie/%s/%s/%d.%s", c.BaseURL, c.Username, c.Password, streamID, ext)
}

// EpisodePlayLink builds the direct URL for a series episode.
func (c *Client) EpisodePlayLink(episodeID int, ext string) string {
	return fmt.Sprintf("%s/series/%s/%s/%d.%s", c.BaseURL, c.Username, c.Password, episodeID, ext)
}
