package web

import (
	"context"
	"fmt"

	"github.com/kevincornish/xtream-loader/cachestore"
	"github.com/kevincornish/xtream-loader/xtream"
)

// Cache keys for upstream results. Parameterised keys embed the upstream id
// so each category, series, film and channel refreshes independently.
const (
	keyAccountInfo      = "user_info"
	keyLiveCategories   = "live_categories"
	keyAllLiveStreams   = "all_live_streams"
	keySeriesCategories = "series_categories"
	keyAllSeries        = "all_series"
	keyFilmCategories   = "film_categories"
	keyAllFilms         = "all_films"
)

func (srv *Server) accountInfo(ctx context.Context, force bool) (*xtream.AccountInfo, cachestore.Meta, error) {
	return cachestore.Fetch(ctx, srv.cache, keyAccountInfo, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) (*xtream.AccountInfo, error) {
		return srv.api.AccountInfo(ctx)
	})
}

func (srv *Server) liveCategories(ctx context.Context, force bool) ([]xtream.Category, cachestore.Meta, error) {
	return cachestore.Fetch(ctx, srv.cache, keyLiveCategories, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.Category, error) {
		return srv.api.LiveCategories(ctx)
	})
}

func (srv *Server) liveStreams(ctx context.Context, categoryID int, force bool) ([]xtream.LiveStream, cachestore.Meta, error) {
	key := fmt.Sprintf("live_channels_%d", categoryID)
	return cachestore.Fetch(ctx, srv.cache, key, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.LiveStream, error) {
		return srv.api.LiveStreams(ctx, categoryID)
	})
}

func (srv *Server) allLiveStreams(ctx context.Context, force bool) ([]xtream.LiveStream, cachestore.Meta, error) {
	return cachestore.Fetch(ctx, srv.cache, keyAllLiveStreams, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.LiveStream, error) {
		return srv.api.LiveStreams(ctx, 0)
	})
}

func (srv *Server) seriesCategories(ctx context.Context, force bool) ([]xtream.Category, cachestore.Meta, error) {
	return cachestore.Fetch(ctx, srv.cache, keySeriesCategories, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.Category, error) {
		return srv.api.SeriesCategories(ctx)
	})
}

func (srv *Server) seriesByCategory(ctx context.Context, categoryID int, force bool) ([]xtream.Series, cachestore.Meta, error) {
	key := fmt.Sprintf("series_%d", categoryID)
	return cachestore.Fetch(ctx, srv.cache, key, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.Series, error) {
		return srv.api.SeriesByCategory(ctx, categoryID)
	})
}

func (srv *Server) allSeries(ctx context.Context, force bool) ([]xtream.Series, cachestore.Meta, error) {
	return cachestore.Fetch(ctx, srv.cache, keyAllSeries, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.Series, error) {
		return srv.api.SeriesByCategory(ctx, 0)
	})
}

func (srv *Server) seriesInfo(ctx context.Context, seriesID int, force bool) (*xtream.SeriesInfo, cachestore.Meta, error) {
	key := fmt.Sprintf("series_streams_%d", seriesID)
	return cachestore.Fetch(ctx, srv.cache, key, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) (*xtream.SeriesInfo, error) {
		return srv.api.SeriesInfo(ctx, seriesID)
	})
}

func (srv *Server) filmCategories(ctx context.Context, force bool) ([]xtream.Category, cachestore.Meta, error) {
	return cachestore.Fetch(ctx, srv.cache, keyFilmCategories, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.Category, error) {
		return srv.api.VodCategories(ctx)
	})
}

func (srv *Server) filmStreams(ctx context.Context, categoryID int, force bool) ([]xtream.VodStream, cachestore.Meta, error) {
	key := fmt.Sprintf("film_streams_%d", categoryID)
	return cachestore.Fetch(ctx, srv.cache, key, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.VodStream, error) {
		return srv.api.VodStreams(ctx, categoryID)
	})
}

func (srv *Server) allFilms(ctx context.Context, force bool) ([]xtream.VodStream, cachestore.Meta, error) {
	return cachestore.Fetch(ctx, srv.cache, keyAllFilms, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) ([]xtream.VodStream, error) {
		return srv.api.VodStreams(ctx, 0)
	})
}

func (srv *Server) filmInfo(ctx context.Context, vodID int, force bool) (*xtream.VodInfo, cachestore.Meta, error) {
	key := fmt.Sprintf("film_details_%d", vodID)
	return cachestore.Fetch(ctx, srv.cache, key, cachestore.FetchOpts{ForceRefresh: force}, func(ctx context.Context) (*xtream.VodInfo, error) {
		return srv.api.VodInfo(ctx, vodID)
	})
}

func (srv *Server) epg(ctx context.Context, streamID int) (*xtream.EPG, cachestore.Meta, error) {
	key := fmt.Sprintf("epg_%d", streamID)
	return cachestore.Fetch(ctx, srv.cache, key, cachestore.FetchOpts{}, func(ctx context.Context) (*xtream.EPG, error) {
		return srv.api.EPG(ctx, streamID)
	})
}
