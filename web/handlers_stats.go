package web

import (
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebStatistics summarises catalog sizes from the cached listings plus the
// local account count. Counts come from whatever is cached; a cold cache
// triggers the usual upstream fetch.
func (srv *Server) WebStatistics(c echo.Context) error {
	ctx := c.Request().Context()
	user := requestUser(c)

	data := pongo2.Context{"user": user}

	if user.StreamsAccess {
		if streams, meta, err := srv.allLiveStreams(ctx, false); err == nil {
			data["channelCount"] = len(streams)
			data["channelsUpdated"] = formatTime(meta.FetchedAt)
		}
		if cats, _, err := srv.liveCategories(ctx, false); err == nil {
			data["liveCategoryCount"] = len(cats)
		}
	}
	if user.SeriesAccess {
		if series, meta, err := srv.allSeries(ctx, false); err == nil {
			data["seriesCount"] = len(series)
			data["seriesUpdated"] = formatTime(meta.FetchedAt)
		}
		if cats, _, err := srv.seriesCategories(ctx, false); err == nil {
			data["seriesCategoryCount"] = len(cats)
		}
	}
	if user.FilmsAccess {
		if films, meta, err := srv.allFilms(ctx, false); err == nil {
			data["filmCount"] = len(films)
			data["filmsUpdated"] = formatTime(meta.FetchedAt)
		}
		if cats, _, err := srv.filmCategories(ctx, false); err == nil {
			data["filmCategoryCount"] = len(cats)
		}
	}

	var userCount int64
	if err := srv.db.Model(&User{}).Count(&userCount).Error; err != nil {
		srv.log.Warn("counting users", "err", err)
	}
	data["userCount"] = userCount

	return c.Render(http.StatusOK, "statistics.html", data)
}
