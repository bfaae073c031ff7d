package web

import (
	"net/http"
	"strconv"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
)

// WebAdmin lists all accounts.
func (srv *Server) WebAdmin(c echo.Context) error {
	var users []User
	if err := srv.db.Order("id").Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "listing users")
	}
	return c.Render(http.StatusOK, "admin.html", pongo2.Context{
		"user":  requestUser(c),
		"users": users,
		"error": c.QueryParam("error"),
	})
}

func (srv *Server) WebAdminAddUser(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return c.Redirect(http.StatusFound, "/admin?error=username+and+password+required")
	}
	admin := c.FormValue("is_admin") == "on"

	if _, err := CreateUser(srv.db, username, password, admin); err != nil {
		srv.log.Warn("add user failed", "username", username, "err", err)
		return c.Redirect(http.StatusFound, "/admin?error=could+not+create+user")
	}
	srv.log.Info("user created", "username", username, "admin", admin)
	return c.Redirect(http.StatusFound, "/admin")
}

func (srv *Server) WebAdminDeleteUser(c echo.Context) error {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	// deleting yourself would orphan the session mid-request
	if requestUser(c).ID == uint(userID) {
		return c.Redirect(http.StatusFound, "/admin?error=cannot+delete+your+own+account")
	}
	if err := srv.db.Delete(&User{}, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "deleting user")
	}
	srv.log.Info("user deleted", "userID", userID)
	return c.Redirect(http.StatusFound, "/admin")
}

// WebAdminUpdateUser toggles the active flag and per-section access flags.
func (srv *Server) WebAdminUpdateUser(c echo.Context) error {
	userID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	var u User
	if err := srv.db.First(&u, userID).Error; err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "no such user")
	}

	u.IsActive = c.FormValue("is_active") == "on"
	u.StreamsAccess = c.FormValue("streams_access") == "on"
	u.SeriesAccess = c.FormValue("series_access") == "on"
	u.FilmsAccess = c.FormValue("films_access") == "on"
	if password := c.FormValue("password"); password != "" {
		hashed, err := encodePassword(password)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "hashing password")
		}
		u.HashedPassword = hashed
	}

	if err := srv.db.Save(&u).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "updating user")
	}
	srv.log.Info("user updated", "userID", userID, "active", u.IsActive)
	return c.Redirect(http.StatusFound, "/admin")
}
