package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebFilms lists film categories with the full catalog.
func (srv *Server) WebFilms(c echo.Context) error {
	ctx := c.Request().Context()
	force := c.QueryParam("force_refresh") != ""

	cats, _, err := srv.filmCategories(ctx, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching film categories")
	}
	films, meta, err := srv.allFilms(ctx, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching films")
	}

	return c.Render(http.StatusOK, "films.html", pongo2.Context{
		"user":        requestUser(c),
		"categories":  cats,
		"films":       srv.filmViews(films),
		"lastUpdated": formatTime(meta.FetchedAt),
		"refreshIn":   refreshIn(meta),
		"stale":       meta.Stale,
	})
}

// WebFilmCategory renders one category's films as an HTML fragment.
func (srv *Server) WebFilmCategory(c echo.Context) error {
	ctx := c.Request().Context()
	categoryID, err := strconv.Atoi(c.Param("category_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid category id")
	}
	force := c.QueryParam("force_refresh") != ""

	films, _, err := srv.filmStreams(ctx, categoryID, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching film category")
	}

	return c.Render(http.StatusOK, "film_list.html", pongo2.Context{
		"films": srv.filmViews(films),
	})
}

// WebFilmDetails renders one film's metadata page.
func (srv *Server) WebFilmDetails(c echo.Context) error {
	ctx := c.Request().Context()
	vodID, err := strconv.Atoi(c.Param("vod_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid film id")
	}
	force := c.QueryParam("force_refresh") != ""

	info, meta, err := srv.filmInfo(ctx, vodID, force)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "fetching film details")
	}

	return c.Render(http.StatusOK, "film_details.html", pongo2.Context{
		"user":        requestUser(c),
		"info":        info.Info,
		"movieData":   info.MovieData,
		"cover":       srv.icons.Path(info.Info.MovieImage),
		"backdrop":    info.Info.BackdropPath.First(),
		"trailer":     escapeTrailer(info.Info.YoutubeTrailer),
		"playLink":    srv.api.MoviePlayLink(info.MovieData.StreamID.Int(), info.MovieData.ContainerExtension),
		"streamID":    info.MovieData.StreamID.Int(),
		"lastUpdated": formatTime(meta.FetchedAt),
		"refreshIn":   refreshIn(meta),
		"stale":       meta.Stale,
	})
}

// WebRefreshAllFilms forces a refresh of the film catalog and warms posters
// in the background.
func (srv *Server) WebRefreshAllFilms(c echo.Context) error {
	ctx := c.Request().Context()

	if _, _, err := srv.filmCategories(ctx, true); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "refreshing film categories")
	}
	films, _, err := srv.allFilms(ctx, true)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "refreshing films")
	}

	urls := make([]string, 0, len(films))
	for _, f := range films {
		urls = append(urls, f.StreamIcon)
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		srv.icons.Warm(ctx, urls)
	}()

	return c.Redirect(http.StatusFound, "/films")
}
