package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kevincornish/xtream-loader/cachestore"
	"github.com/kevincornish/xtream-loader/web"
	"github.com/kevincornish/xtream-loader/xtream"
)

var (
	version = versioninfo.Short()
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:  "xtream-loader",
		Usage: "web front-end and cache for an Xtream Codes IPTV provider",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "sqlite-path",
				Usage:   "Database file path",
				Value:   "./xtream-loader.sqlite",
				EnvVars: []string{"XTREAM_LOADER_SQLITE_PATH"},
			},
		},
	}

	app.Commands = []*cli.Command{
		&cli.Command{
			Name:   "serve",
			Usage:  "run the web server",
			Action: runServe,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "bind",
					Usage:   "Specify the local IP/port to bind to",
					Value:   ":8420",
					EnvVars: []string{"XTREAM_LOADER_BIND"},
				},
				&cli.StringFlag{
					Name:     "upstream-url",
					Usage:    "Base URL of the Xtream provider (scheme and host)",
					Required: true,
					EnvVars:  []string{"XTREAM_URL"},
				},
				&cli.StringFlag{
					Name:     "upstream-user",
					Usage:    "Xtream provider account name",
					Required: true,
					EnvVars:  []string{"XTREAM_USER"},
				},
				&cli.StringFlag{
					Name:     "upstream-pass",
					Usage:    "Xtream provider account password",
					Required: true,
					EnvVars:  []string{"XTREAM_PASS"},
				},
				&cli.StringFlag{
					Name:    "session-secret",
					Usage:   "Secret key for signing login session cookies",
					EnvVars: []string{"XTREAM_LOADER_SESSION_SECRET"},
				},
				&cli.DurationFlag{
					Name:    "cache-ttl",
					Usage:   "How long upstream results are served before refreshing",
					Value:   cachestore.DefaultTTL,
					EnvVars: []string{"XTREAM_LOADER_CACHE_TTL"},
				},
				&cli.StringFlag{
					Name:    "icon-dir",
					Usage:   "Directory for the local channel icon cache",
					Value:   "./icon_cache",
					EnvVars: []string{"XTREAM_LOADER_ICON_DIR"},
				},
				&cli.BoolFlag{
					Name:    "debug",
					Usage:   "Reload templates from disk and enable debug logging",
					EnvVars: []string{"XTREAM_LOADER_DEBUG"},
				},
			},
		},
		&cli.Command{
			Name:      "create-admin",
			Usage:     "create an admin account",
			ArgsUsage: "<username> <password>",
			Action:    runCreateAdmin,
		},
		&cli.Command{
			Name:  "version",
			Usage: "print version",
			Action: func(cctx *cli.Context) error {
				fmt.Println(version)
				return nil
			},
		},
	}

	return app.Run(args)
}

func openDB(cctx *cli.Context) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cctx.String("sqlite-path")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := web.RunAllMigrations(db); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func runServe(cctx *cli.Context) error {
	level := slog.LevelInfo
	if cctx.Bool("debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	db, err := openDB(cctx)
	if err != nil {
		return err
	}

	secret := cctx.String("session-secret")
	if secret == "" {
		// sessions won't survive restarts without a configured secret
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return err
		}
		secret = hex.EncodeToString(buf)
		slog.Warn("no session secret configured, using a random one; logins reset on restart")
	}

	api := xtream.NewClient(
		cctx.String("upstream-url"),
		cctx.String("upstream-user"),
		cctx.String("upstream-pass"),
	)

	store, err := cachestore.NewGormStore(db)
	if err != nil {
		return fmt.Errorf("setting up cache store: %w", err)
	}
	cache := cachestore.New(store,
		cachestore.WithTTL(cctx.Duration("cache-ttl")),
		cachestore.WithServeStale(),
	)

	srv, err := web.NewServer(db, api, cache, web.Config{
		Bind:          cctx.String("bind"),
		SessionSecret: secret,
		IconDir:       cctx.String("icon-dir"),
		Debug:         cctx.Bool("debug"),
	})
	if err != nil {
		return err
	}
	return srv.Run()
}

func runCreateAdmin(cctx *cli.Context) error {
	username := cctx.Args().Get(0)
	password := cctx.Args().Get(1)
	if username == "" || password == "" {
		return fmt.Errorf("usage: create-admin <username> <password>")
	}

	db, err := openDB(cctx)
	if err != nil {
		return err
	}
	u, err := web.CreateUser(db, username, password, true)
	if err != nil {
		return err
	}
	slog.Info("admin account created", "username", u.Username, "id", u.ID, "at", time.Now().Format(time.RFC3339))
	return nil
}
