// Package web is the browser-facing side of xtream-loader: an echo server
// rendering pongo2 pages over the cached upstream catalog, with
// session-cookie auth and a small admin panel.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flosch/pongo2/v6"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"gorm.io/gorm"

	"github.com/kevincornish/xtream-loader/cachestore"
	"github.com/kevincornish/xtream-loader/xtream"
)

//go:embed templates/*
var TemplateFS embed.FS

//go:embed static/*
var StaticFS embed.FS

type Config struct {
	Bind          string
	SessionSecret string
	IconDir       string
	Debug         bool
}

type Server struct {
	echo     *echo.Echo
	httpd    *http.Server
	db       *gorm.DB
	api      *xtream.Client
	cache    *cachestore.Cache
	icons    *IconCache
	sessions *sessions.CookieStore
	log      *slog.Logger
}

func NewServer(db *gorm.DB, api *xtream.Client, cache *cachestore.Cache, cfg Config) (*Server, error) {
	logger := slog.Default()

	icons, err := NewIconCache(cfg.IconDir, api.HTTP, logger)
	if err != nil {
		return nil, err
	}

	cookies := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	e := echo.New()
	srv := &Server{
		echo:     e,
		db:       db,
		api:      api,
		cache:    cache,
		icons:    icons,
		sessions: cookies,
		log:      logger,
	}

	var (
		httpTimeout        = 1 * time.Minute
		httpMaxHeaderBytes = 1 * (1024 * 1024)
	)
	srv.httpd = &http.Server{
		Handler:        srv,
		Addr:           cfg.Bind,
		WriteTimeout:   httpTimeout,
		ReadTimeout:    httpTimeout,
		MaxHeaderBytes: httpMaxHeaderBytes,
	}

	e.HideBanner = true
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(echoprometheus.NewMiddleware("xtreamloader"))
	e.Use(middleware.BodyLimit("1M"))
	e.HTTPErrorHandler = srv.errorHandler
	e.Renderer = NewRenderer("templates/", &TemplateFS, cfg.Debug)
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))
	e.Use(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusFound,
	}))

	staticHandler := http.FileServer(func() http.FileSystem {
		if cfg.Debug {
			return http.FS(os.DirFS("web/static"))
		}
		fsys, err := fs.Sub(StaticFS, "static")
		if err != nil {
			slog.Error("embedded static missing", "err", err)
			os.Exit(-1)
		}
		return http.FS(fsys)
	}())

	e.GET("/static/*", echo.WrapHandler(http.StripPrefix("/static/", staticHandler)))
	e.GET("/robots.txt", echo.WrapHandler(staticHandler))
	e.Static(iconRoutePrefix, cfg.IconDir)

	e.GET("/_health", srv.HandleHealthCheck)
	e.GET("/metrics", echoprometheus.NewHandler())

	// auth
	e.GET("/login", srv.WebLoginPage)
	e.POST("/token", srv.WebLogin)
	e.GET("/logout", srv.WebLogout)

	// dashboard
	e.GET("/", srv.WebHome, srv.requireUser)

	// live TV
	streams := srv.requireAccess(func(u *User) bool { return u.StreamsAccess })
	e.GET("/streams", srv.WebStreams, streams)
	e.GET("/streams/refresh-all", srv.WebRefreshAllStreams, streams)
	e.GET("/epg/:stream_id", srv.WebEPG, streams)
	e.GET("/epg_page/:stream_id", srv.WebEPGPage, streams)

	// series
	series := srv.requireAccess(func(u *User) bool { return u.SeriesAccess })
	e.GET("/series", srv.WebSeries, series)
	e.GET("/series/refresh-all", srv.WebRefreshAllSeries, series)
	e.GET("/series/:series_id", srv.WebSeriesDetails, series)
	e.GET("/series-category/:category_id", srv.WebSeriesCategory, series)

	// films
	films := srv.requireAccess(func(u *User) bool { return u.FilmsAccess })
	e.GET("/films", srv.WebFilms, films)
	e.GET("/films/refresh-all", srv.WebRefreshAllFilms, films)
	e.GET("/film-category/:category_id", srv.WebFilmCategory, films)
	e.GET("/film/:vod_id", srv.WebFilmDetails, films)

	// player, search, stats
	e.GET("/stream/:type/:id", srv.WebStreamPlayer, srv.requireUser)
	e.GET("/search", srv.WebSearch, srv.requireUser)
	e.GET("/statistics", srv.WebStatistics, srv.requireUser)

	// admin
	e.GET("/admin", srv.WebAdmin, srv.requireAdmin)
	e.POST("/admin/add_user", srv.WebAdminAddUser, srv.requireAdmin)
	e.POST("/admin/delete_user/:user_id", srv.WebAdminDeleteUser, srv.requireAdmin)
	e.POST("/admin/update_user/:user_id", srv.WebAdminUpdateUser, srv.requireAdmin)

	return srv, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM.
func (srv *Server) Run() error {
	slog.Info("starting server", "bind", srv.httpd.Addr)
	go func() {
		if err := srv.httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				slog.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	quit := make(chan struct{})
	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-exitSignals
		slog.Info("received OS exit signal", "signal", sig)
		if err := srv.Shutdown(); err != nil {
			slog.Error("HTTP server shutdown error", "err", err)
		}
		close(quit)
	}()
	<-quit
	slog.Info("graceful shutdown complete")
	return nil
}

func (srv *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	srv.echo.ServeHTTP(rw, req)
}

func (srv *Server) Shutdown() error {
	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.httpd.Shutdown(ctx)
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func (srv *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(200, GenericStatus{Status: "ok", Daemon: "xtream-loader"})
}

func (srv *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	var errorMessage string
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		errorMessage = fmt.Sprintf("%s", he.Message)
	}
	if code >= 500 {
		slog.Warn("xtream-loader-http-internal-error", "err", err)
	}
	data := pongo2.Context{
		"statusCode":   code,
		"errorMessage": errorMessage,
	}
	if !c.Response().Committed {
		c.Render(code, "error.html", data) // nolint:errcheck
	}
}
