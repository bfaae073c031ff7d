package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebStreamPlayer renders the in-browser video player for a live channel,
// film or episode. Episode ids are "<seriesID>_<episodeID>" so the page can
// link back to the series.
func (srv *Server) WebStreamPlayer(c echo.Context) error {
	user := requestUser(c)
	streamType := c.Param("type")
	id := c.Param("id")

	var (
		playLink string
		backLink string
		title    string
	)
	switch streamType {
	case "live":
		if !user.StreamsAccess {
			return echo.NewHTTPError(http.StatusForbidden, "no live TV access")
		}
		streamID, err := strconv.Atoi(id)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid stream id")
		}
		playLink = srv.api.LivePlayLink(streamID)
		backLink = "/streams"
		title = "Live"
	case "movie":
		if !user.FilmsAccess {
			return echo.NewHTTPError(http.StatusForbidden, "no films access")
		}
		vodID, err := strconv.Atoi(id)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid film id")
		}
		info, _, err := srv.filmInfo(c.Request().Context(), vodID, false)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "fetching film details")
		}
		playLink = srv.api.MoviePlayLink(vodID, info.MovieData.ContainerExtension)
		backLink = "/film/" + id
		title = info.Info.Name
	case "episode":
		if !user.SeriesAccess {
			return echo.NewHTTPError(http.StatusForbidden, "no series access")
		}
		seriesPart, episodePart, ok := strings.Cut(id, "_")
		if !ok {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid episode reference")
		}
		seriesID, err := strconv.Atoi(seriesPart)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid series id")
		}
		episodeID, err := strconv.Atoi(episodePart)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid episode id")
		}
		info, _, err := srv.seriesInfo(c.Request().Context(), seriesID, false)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "fetching series details")
		}
		ext := "mp4"
		title = info.Info.Name
		for _, episodes := range info.Episodes {
			for _, ep := range episodes {
				if ep.ID.Int() == episodeID {
					ext = ep.ContainerExtension
					title = ep.Title
				}
			}
		}
		playLink = srv.api.EpisodePlayLink(episodeID, ext)
		backLink = "/series/" + seriesPart
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown stream type")
	}

	return c.Render(http.StatusOK, "video_player.html", pongo2.Context{
		"user":       user,
		"title":      title,
		"playLink":   playLink,
		"backLink":   backLink,
		"streamType": streamType,
	})
}
