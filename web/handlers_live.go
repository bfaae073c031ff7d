package web

import (
	"context"
	"net/http"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebStreams lists live TV categories and all channels in one page.
func (srv *Server) WebStreams(c echo.Context) error {
	ctx := c.Request().Context()
	force := c.QueryParam("force_refresh") != ""

	cats, _, err := srv.liveCategories(ctx, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching live categories")
	}
	streams, meta, err := srv.allLiveStreams(ctx, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching live channels")
	}

	return c.Render(http.StatusOK, "streams.html", pongo2.Context{
		"user":        requestUser(c),
		"categories":  cats,
		"channels":    srv.channelViews(streams),
		"lastUpdated": formatTime(meta.FetchedAt),
		"refreshIn":   refreshIn(meta),
		"stale":       meta.Stale,
	})
}

// WebRefreshAllStreams forces a refresh of the full channel list and warms
// the icon cache in the background before sending the user back.
func (srv *Server) WebRefreshAllStreams(c echo.Context) error {
	ctx := c.Request().Context()

	if _, _, err := srv.liveCategories(ctx, true); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "refreshing live categories")
	}
	streams, _, err := srv.allLiveStreams(ctx, true)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "refreshing live channels")
	}

	urls := make([]string, 0, len(streams))
	for _, s := range streams {
		urls = append(urls, s.StreamIcon)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		srv.icons.Warm(ctx, urls)
	}()

	return c.Redirect(http.StatusFound, "/streams")
}
