package web

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const iconRoutePrefix = "/icons"

// IconCache mirrors channel icons and film/series covers onto local disk so
// catalog pages don't hotlink hundreds of images from the poster sites.
// Files are named by the md5 of the source URL.
type IconCache struct {
	dir     string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func NewIconCache(dir string, client *http.Client, logger *slog.Logger) (*IconCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating icon dir: %w", err)
	}
	return &IconCache{
		dir:  dir,
		http: client,
		// poster sites ban fast crawlers
		limiter: rate.NewLimiter(rate.Limit(2), 1),
		log:     logger,
	}, nil
}

func (ic *IconCache) filename(iconURL string) string {
	return fmt.Sprintf("%x.png", md5.Sum([]byte(iconURL)))
}

// Path returns the local route for an icon when it has been downloaded, and
// the upstream URL otherwise. It never blocks on a download.
func (ic *IconCache) Path(iconURL string) string {
	if iconURL == "" {
		return ""
	}
	name := ic.filename(iconURL)
	if _, err := os.Stat(filepath.Join(ic.dir, name)); err == nil {
		return iconRoutePrefix + "/" + name
	}
	return iconURL
}

// Warm downloads any icons not yet on disk. Used as a background task after
// refresh-all; duplicate and empty URLs are skipped.
func (ic *IconCache) Warm(ctx context.Context, urls []string) {
	seen := make(map[string]bool, len(urls))
	var pending []string
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		if _, err := os.Stat(filepath.Join(ic.dir, ic.filename(u))); err == nil {
			continue
		}
		pending = append(pending, u)
	}
	if len(pending) == 0 {
		return
	}

	ic.log.Info("warming icon cache", "count", len(pending))
	var done atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, u := range pending {
		u := u
		g.Go(func() error {
			if err := ic.fetch(ctx, u); err != nil {
				ic.log.Warn("icon download failed", "url", u, "err", err)
				return nil // keep going, a missing icon is cosmetic
			}
			done.Add(1)
			return nil
		})
	}
	g.Wait() // nolint:errcheck
	ic.log.Info("icon cache warmed", "downloaded", done.Load(), "total", len(pending))
}

func (ic *IconCache) fetch(ctx context.Context, iconURL string) error {
	if err := ic.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return err
	}
	resp, err := ic.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	dst := filepath.Join(ic.dir, ic.filename(iconURL))
	tmp, err := os.CreateTemp(ic.dir, "icon-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// rename so Path never sees a partial file
	return os.Rename(tmp.Name(), dst)
}
