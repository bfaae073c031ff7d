package web

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebSeries lists series categories with the full catalog.
func (srv *Server) WebSeries(c echo.Context) error {
	ctx := c.Request().Context()
	force := c.QueryParam("force_refresh") != ""

	cats, _, err := srv.seriesCategories(ctx, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching series categories")
	}
	series, meta, err := srv.allSeries(ctx, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching series")
	}

	return c.Render(http.StatusOK, "series.html", pongo2.Context{
		"user":        requestUser(c),
		"categories":  cats,
		"series":      srv.seriesViews(series),
		"lastUpdated": formatTime(meta.FetchedAt),
		"refreshIn":   refreshIn(meta),
		"stale":       meta.Stale,
	})
}

// WebSeriesCategory renders one category's series as an HTML fragment for
// in-page swapping.
func (srv *Server) WebSeriesCategory(c echo.Context) error {
	ctx := c.Request().Context()
	categoryID, err := strconv.Atoi(c.Param("category_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}
	force := c.QueryParam("force_refresh") != ""

	series, _, err := srv.seriesByCategory(ctx, categoryID, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching series category")
	}

	return c.Render(http.StatusOK, "series_list.html", pongo2.Context{
		"series": srv.seriesViews(series),
	})
}

// WebSeriesDetails renders one series with its seasons and episodes.
func (srv *Server) WebSeriesDetails(c echo.Context) error {
	ctx := c.Request().Context()
	seriesID, err := strconv.Atoi(c.Param("series_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid series id")
	}
	force := c.QueryParam("force_refresh") != ""

	info, meta, err := srv.seriesInfo(ctx, seriesID, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching series details")
	}

	seasons := make([]seasonView, 0, len(info.Episodes))
	for season, episodes := range info.Episodes {
		sv := seasonView{Season: season}
		for _, ep := range episodes {
			sv.Episodes = append(sv.Episodes, episodeView{
				Episode:   ep,
				PlayLink:  srv.api.EpisodePlayLink(ep.ID.Int(), ep.ContainerExtension),
				StreamRef: strconv.Itoa(seriesID) + "_" + strconv.Itoa(ep.ID.Int()),
			})
		}
		seasons = append(seasons, sv)
	}
	// season keys are strings on the wire; sort numerically where possible
	sort.Slice(seasons, func(i, j int) bool {
		a, aerr := strconv.Atoi(seasons[i].Season)
		b, berr := strconv.Atoi(seasons[j].Season)
		if aerr != nil || berr != nil {
			return seasons[i].Season < seasons[j].Season
		}
		return a < b
	})

	return c.Render(http.StatusOK, "series_details.html", pongo2.Context{
		"user":        requestUser(c),
		"info":        info.Info,
		"cover":       srv.icons.Path(info.Info.Cover),
		"backdrop":    info.Info.BackdropPath.First(),
		"trailer":     escapeTrailer(info.Info.YoutubeTrailer),
		"seasons":     seasons,
		"lastUpdated": formatTime(meta.FetchedAt),
		"refreshIn":   refreshIn(meta),
		"stale":       meta.Stale,
	})
}

// WebRefreshAllSeries forces a refresh of the series catalog and warms cover
// art in the background.
func (srv *Server) WebRefreshAllSeries(c echo.Context) error {
	ctx := c.Request().Context()

	if _, _, err := srv.seriesCategories(ctx, true); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "refreshing series categories")
	}
	series, _, err := srv.allSeries(ctx, true)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "refreshing series")
	}

	urls := make([]string, 0, len(series))
	for _, s := range series {
		urls = append(urls, s.Cover)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		srv.icons.Warm(ctx, urls)
	}()

	return c.Redirect(http.StatusFound, "/series")
}
