package web

import (
	"net/http"
	"strconv"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebEPG returns the decoded programme guide for one channel as JSON, for
// the in-page guide popover.
func (srv *Server) WebEPG(c echo.Context) error {
	ctx := c.Request().Context()
	streamID, err := strconv.Atoi(c.Param("stream_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid stream id")
	}

	guide, meta, err := srv.epg(ctx, streamID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching programme guide")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"listings":     epgViews(guide.Listings),
		"last_updated": formatTime(meta.FetchedAt),
	})
}

// WebEPGPage renders the full-page programme guide for one channel.
func (srv *Server) WebEPGPage(c echo.Context) error {
	ctx := c.Request().Context()
	streamID, err := strconv.Atoi(c.Param("stream_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid stream id")
	}

	guide, meta, err := srv.epg(ctx, streamID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching programme guide")
	}

	return c.Render(http.StatusOK, "epg_info.html", pongo2.Context{
		"user":        requestUser(c),
		"streamID":    streamID,
		"listings":    epgViews(guide.Listings),
		"playLink":    srv.api.LivePlayLink(streamID),
		"lastUpdated": formatTime(meta.FetchedAt),
		"refreshIn":   refreshIn(meta),
	})
}
