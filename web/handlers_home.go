package web

import (
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebHome is the dashboard: upstream account status plus cache freshness.
func (srv *Server) WebHome(c echo.Context) error {
	ctx := c.Request().Context()
	force := c.QueryParam("force_refresh") != ""

	info, meta, err := srv.accountInfo(ctx, force)
	if err != nil {
		srv.log.Warn("account info fetch failed", "err", err)
		return c.Render(http.StatusOK, "index.html", pongo2.Context{
			"user":         requestUser(c),
			"fetchError":   true,
			"errorMessage": "could not reach the upstream provider",
		})
	}

	data := pongo2.Context{
		"user":        requestUser(c),
		"userInfo":    info.UserInfo,
		"serverInfo":  info.ServerInfo,
		"expiryDate":  formatTime(info.UserInfo.ExpDate.Time()),
		"createdAt":   formatTime(info.UserInfo.CreatedAt.Time()),
		"lastUpdated": formatTime(meta.FetchedAt),
		"refreshIn":   refreshIn(meta),
		"stale":       meta.Stale,
	}
	if c.QueryParam("error") == "authfail" {
		data["errorMessage"] = "upstream rejected the configured credentials"
	}
	return c.Render(http.StatusOK, "index.html", data)
}
