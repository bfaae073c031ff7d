package web

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kevincornish/xtream-loader/cachestore"
	"github.com/kevincornish/xtream-loader/xtream"
)

const timestampLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	return t.Format(timestampLayout)
}

// refreshIn renders the time until a cache entry goes stale, e.g.
// "22 hours and 15 minutes".
func refreshIn(meta cachestore.Meta) string {
	until := time.Until(meta.ExpiresAt)
	if until < 0 {
		until = 0
	}
	hours := int(until.Hours())
	minutes := int(until.Minutes()) % 60
	return fmt.Sprintf("%d hours and %d minutes", hours, minutes)
}

// channelView decorates a live stream with everything the templates need.
type channelView struct {
	xtream.LiveStream
	AddedDate  string
	PlayLink   string
	CachedIcon string
}

func (srv *Server) channelViews(streams []xtream.LiveStream) []channelView {
	out := make([]channelView, 0, len(streams))
	for _, s := range streams {
		out = append(out, channelView{
			LiveStream: s,
			AddedDate:  formatTime(s.Added.Time()),
			PlayLink:   srv.api.LivePlayLink(s.StreamID.Int()),
			CachedIcon: srv.icons.Path(s.StreamIcon),
		})
	}
	return out
}

type seriesView struct {
	xtream.Series
	CachedCover string
}

func (srv *Server) seriesViews(series []xtream.Series) []seriesView {
	out := make([]seriesView, 0, len(series))
	for _, s := range series {
		out = append(out, seriesView{
			Series:      s,
			CachedCover: srv.icons.Path(s.Cover),
		})
	}
	return out
}

type filmView struct {
	xtream.VodStream
	AddedDate  string
	PlayLink   string
	CachedIcon string
}

func (srv *Server) filmViews(streams []xtream.VodStream) []filmView {
	out := make([]filmView, 0, len(streams))
	for _, s := range streams {
		out = append(out, filmView{
			VodStream:  s,
			AddedDate:  formatTime(s.Added.Time()),
			PlayLink:   srv.api.MoviePlayLink(s.StreamID.Int(), s.ContainerExtension),
			CachedIcon: srv.icons.Path(s.StreamIcon),
		})
	}
	return out
}

type episodeView struct {
	xtream.Episode
	PlayLink string
	// StreamRef is the "<seriesID>_<episodeID>" token the player route expects.
	StreamRef string
}

type seasonView struct {
	Season   string
	Episodes []episodeView
}

type epgView struct {
	Title       string
	Description string
	Lang        string
	Start       string
	End         string
	NowPlaying  bool
	HasArchive  bool
}

func epgViews(listings []xtream.EPGListing) []epgView {
	out := make([]epgView, 0, len(listings))
	for _, l := range listings {
		out = append(out, epgView{
			Title:       l.DecodedTitle(),
			Description: l.DecodedDescription(),
			Lang:        l.Lang,
			Start:       l.Start,
			End:         l.End,
			NowPlaying:  bool(l.NowPlaying),
			HasArchive:  bool(l.HasArchive),
		})
	}
	return out
}

// escapeTrailer makes youtube_trailer values safe to drop into an embed URL.
func escapeTrailer(trailer xtream.StringList) string {
	return url.QueryEscape(trailer.First())
}
