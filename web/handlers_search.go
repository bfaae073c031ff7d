package web

import (
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebSearch fuzzy-searches the cached catalogs. search_type selects one of
// tv, series or films; results are gated by the user's access flags.
func (srv *Server) WebSearch(c echo.Context) error {
	ctx := c.Request().Context()
	user := requestUser(c)
	query := c.QueryParam("q")
	searchType := c.QueryParam("search_type")
	if searchType == "" {
		searchType = "tv"
	}

	data := pongo2.Context{
		"user":       user,
		"query":      query,
		"searchType": searchType,
	}
	if query == "" {
		return c.Render(http.StatusOK, "search.html", data)
	}

	switch searchType {
	case "tv":
		if !user.StreamsAccess {
			return echo.NewHTTPError(http.StatusForbidden, "no live TV access")
		}
		streams, _, err := srv.allLiveStreams(ctx, false)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "searching live channels")
		}
		names := make([]string, len(streams))
		for i, s := range streams {
			names[i] = s.Name
		}
		var hits []channelView
		for _, i := range rankByName(query, names) {
			hits = append(hits, srv.channelViews(streams[i:i+1])...)
		}
		data["channels"] = hits
	case "series":
		if !user.SeriesAccess {
			return echo.NewHTTPError(http.StatusForbidden, "no series access")
		}
		series, _, err := srv.allSeries(ctx, false)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "searching series")
		}
		names := make([]string, len(series))
		for i, s := range series {
			names[i] = s.Name
		}
		var hits []seriesView
		for _, i := range rankByName(query, names) {
			hits = append(hits, srv.seriesViews(series[i:i+1])...)
		}
		data["series"] = hits
	case "films":
		if !user.FilmsAccess {
			return echo.NewHTTPError(http.StatusForbidden, "no films access")
		}
		films, _, err := srv.allFilms(ctx, false)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadGateway, "searching films")
		}
		names := make([]string, len(films))
		for i, f := range films {
			names[i] = f.Name
		}
		var hits []filmView
		for _, i := range rankByName(query, names) {
			hits = append(hits, srv.filmViews(films[i:i+1])...)
		}
		data["films"] = hits
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "unknown search type")
	}

	return c.Render(http.StatusOK, "search.html", data)
}
