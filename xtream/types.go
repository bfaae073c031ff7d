package xtream

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Xtream panels are sloppy about JSON scalar types: the same field arrives as
// 5, "5", 5.0 or "" depending on the panel software and even the individual
// entry. The wrapper types below accept all of those so one bad channel can't
// break a whole category listing.

// Int decodes from a JSON number or a numeric string. Empty strings and null
// decode to zero.
type Int int

func (v *Int) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// some panels use floats for integer fields
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return fmt.Errorf("xtream: invalid integer %q", s)
		}
		n = int(f)
	}
	*v = Int(n)
	return nil
}

func (v Int) Int() int {
	return int(v)
}

// Time interprets the value as unix seconds.
func (v Int) Time() time.Time {
	return time.Unix(int64(v), 0)
}

// Float decodes from a JSON number or a numeric string.
type Float float64

func (v *Float) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("xtream: invalid float %q", s)
	}
	*v = Float(f)
	return nil
}

// Bool decodes from JSON true/false, 0/1, or the string forms of either.
type Bool bool

func (v *Bool) UnmarshalJSON(b []byte) error {
	switch s := string(bytes.Trim(b, `"`)); s {
	case "", "null", "0", "false":
		*v = false
	case "1", "true":
		*v = true
	default:
		return fmt.Errorf("xtream: invalid bool %q", s)
	}
	return nil
}

// StringList decodes from either a single JSON string or an array of strings.
// Panels use both forms for backdrop_path and youtube_trailer.
type StringList []string

func (v *StringList) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*v = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*v = nil
		return nil
	}
	*v = StringList{s}
	return nil
}

// First returns the first element, or "" when empty.
func (v StringList) First() string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

// Category is shared between live, VOD and series listings.
type Category struct {
	CategoryID   Int    `json:"category_id"`
	CategoryName string `json:"category_name"`
	ParentID     Int    `json:"parent_id"`
}

type LiveStream struct {
	Num               Int    `json:"num"`
	Name              string `json:"name"`
	StreamType        string `json:"stream_type"`
	StreamID          Int    `json:"stream_id"`
	StreamIcon        string `json:"stream_icon"`
	EPGChannelID      string `json:"epg_channel_id"`
	Added             Int    `json:"added"`
	CategoryID        Int    `json:"category_id"`
	CustomSID         string `json:"custom_sid"`
	TVArchive         Int    `json:"tv_archive"`
	DirectSource      string `json:"direct_source"`
	TVArchiveDuration Int    `json:"tv_archive_duration"`
}

type VodStream struct {
	Num                Int    `json:"num"`
	Name               string `json:"name"`
	StreamType         string `json:"stream_type"`
	StreamID           Int    `json:"stream_id"`
	StreamIcon         string `json:"stream_icon"`
	Rating             string `json:"rating"`
	Rating5Based       Float  `json:"rating_5based"`
	Added              Int    `json:"added"`
	CategoryID         Int    `json:"category_id"`
	ContainerExtension string `json:"container_extension"`
	CustomSID          string `json:"custom_sid"`
	DirectSource       string `json:"direct_source"`
}

type Series struct {
	Num            Int        `json:"num"`
	SeriesID       Int        `json:"series_id"`
	Name           string     `json:"name"`
	Cover          string     `json:"cover"`
	Plot           string     `json:"plot"`
	Cast           string     `json:"cast"`
	Director       string     `json:"director"`
	Genre          string     `json:"genre"`
	ReleaseDate    string     `json:"releaseDate"`
	LastModified   Int        `json:"last_modified"`
	Rating         string     `json:"rating"`
	Rating5Based   Float      `json:"rating_5based"`
	BackdropPath   StringList `json:"backdrop_path"`
	YoutubeTrailer StringList `json:"youtube_trailer"`
	EpisodeRunTime string     `json:"episode_run_time"`
	CategoryID     Int        `json:"category_id"`
}

// SeriesInfo is the get_series_info payload: series metadata plus episodes
// grouped by season number (the season keys are strings on the wire).
type SeriesInfo struct {
	Info     Series               `json:"info"`
	Episodes map[string][]Episode `json:"episodes"`
}

type Episode struct {
	ID                 Int             `json:"id"`
	EpisodeNum         Int             `json:"episode_num"`
	Title              string          `json:"title"`
	ContainerExtension string          `json:"container_extension"`
	Plot               string          `json:"plot"`
	Duration           string          `json:"duration"`
	Rating             Float           `json:"rating"`
	Info               json.RawMessage `json:"info"`
}

// VodInfo is the get_vod_info payload.
type VodInfo struct {
	Info      FilmDetail `json:"info"`
	MovieData MovieData  `json:"movie_data"`
}

type FilmDetail struct {
	Name                 string          `json:"name"`
	OriginalName         string          `json:"o_name"`
	MovieImage           string          `json:"movie_image"`
	CoverBig             string          `json:"cover_big"`
	Plot                 string          `json:"plot"`
	Cast                 string          `json:"cast"`
	Director             string          `json:"director"`
	Genre                string          `json:"genre"`
	ReleaseDate          string          `json:"releasedate"`
	Rating               string          `json:"rating"`
	Rating5Based         Float           `json:"rating_5based"`
	DurationSecs         Int             `json:"duration_secs"`
	Duration             string          `json:"duration"`
	YoutubeTrailer       StringList      `json:"youtube_trailer"`
	TMDBID               Int             `json:"tmdb_id"`
	KinopoiskURL         string          `json:"kinopoisk_url"`
	EpisodeRunTime       string          `json:"episode_run_time"`
	Actors               string          `json:"actors"`
	Description          string          `json:"description"`
	Age                  string          `json:"age"`
	MPAARating           string          `json:"mpaa_rating"`
	RatingCountKinopoisk Int             `json:"rating_count_kinopoisk"`
	Country              string          `json:"country"`
	BackdropPath         StringList      `json:"backdrop_path"`
	Bitrate              Int             `json:"bitrate"`
	Video                json.RawMessage `json:"video"`
	Audio                json.RawMessage `json:"audio"`
}

type MovieData struct {
	StreamID           Int    `json:"stream_id"`
	Name               string `json:"name"`
	Added              Int    `json:"added"`
	CategoryID         Int    `json:"category_id"`
	ContainerExtension string `json:"container_extension"`
	CustomSID          string `json:"custom_sid"`
	DirectSource       string `json:"direct_source"`
}

// EPG is the get_simple_data_table payload.
type EPG struct {
	Listings []EPGListing `json:"epg_listings"`
}

type EPGListing struct {
	ID             Int    `json:"id"`
	EPGID          Int    `json:"epg_id"`
	Title          string `json:"title"`
	Lang           string `json:"lang"`
	Start          string `json:"start"`
	End            string `json:"end"`
	Description    string `json:"description"`
	ChannelID      string `json:"channel_id"`
	StartTimestamp Int    `json:"start_timestamp"`
	StopTimestamp  Int    `json:"stop_timestamp"`
	NowPlaying     Bool   `json:"now_playing"`
	HasArchive     Bool   `json:"has_archive"`
}

// DecodedTitle returns the base64-decoded programme title. Panels ship EPG
// text base64-encoded; malformed values are returned as-is.
func (l *EPGListing) DecodedTitle() string {
	return decodeB64(l.Title)
}

func (l *EPGListing) DecodedDescription() string {
	return decodeB64(l.Description)
}

func decodeB64(s string) string {
	dec, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return s
	}
	return string(dec)
}

// AccountInfo is the bare player_api.php response (no action).
type AccountInfo struct {
	UserInfo   UserInfo   `json:"user_info"`
	ServerInfo ServerInfo `json:"server_info"`
}

type UserInfo struct {
	Username             string     `json:"username"`
	Password             string     `json:"password"`
	Message              string     `json:"message"`
	Auth                 Int        `json:"auth"`
	Status               string     `json:"status"`
	ExpDate              Int        `json:"exp_date"`
	IsTrial              Bool       `json:"is_trial"`
	ActiveCons           Int        `json:"active_cons"`
	CreatedAt            Int        `json:"created_at"`
	MaxConnections       Int        `json:"max_connections"`
	AllowedOutputFormats StringList `json:"allowed_output_formats"`
}

type ServerInfo struct {
	URL            string `json:"url"`
	Port           Int    `json:"port"`
	HTTPSPort      Int    `json:"https_port"`
	ServerProtocol string `json:"server_protocol"`
	RTMPPort       Int    `json:"rtmp_port"`
	Timezone       string `json:"timezone"`
	TimestampNow   Int    `json:"timestamp_now"`
	TimeNow        string `json:"time_now"`
}
