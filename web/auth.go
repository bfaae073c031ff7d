package web

import (
	"errors"
	"net/http"

	"github.com/flosch/pongo2/v6"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const sessionName = "xtream-loader"

const userContextKey = "authed-user"

// currentUser resolves the signed session cookie to a database user. Returns
// nil without error when the request is simply not logged in.
func (srv *Server) currentUser(c echo.Context) (*User, error) {
	sess, err := srv.sessions.Get(c.Request(), sessionName)
	if err != nil {
		// tampered or outdated cookie, treat as logged out
		return nil, nil
	}
	username, ok := sess.Values["username"].(string)
	if !ok || username == "" {
		return nil, nil
	}

	var u User
	if err := srv.db.WithContext(c.Request().Context()).First(&u, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, nil
	}
	return &u, nil
}

// requireUser redirects anonymous requests to the login page and stashes the
// user on the context for handlers.
func (srv *Server) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, err := srv.currentUser(c)
		if err != nil {
			return err
		}
		if user == nil {
			return c.Redirect(http.StatusFound, "/login")
		}
		c.Set(userContextKey, user)
		return next(c)
	}
}

func (srv *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return srv.requireUser(func(c echo.Context) error {
		if !requestUser(c).IsAdmin {
			return c.Redirect(http.StatusFound, "/?error=authfail")
		}
		return next(c)
	})
}

// requireAccess gates a section (live/series/films) on a per-user flag.
func (srv *Server) requireAccess(allowed func(*User) bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return srv.requireUser(func(c echo.Context) error {
			if !allowed(requestUser(c)) {
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}
			return next(c)
		})
	}
}

func requestUser(c echo.Context) *User {
	u, _ := c.Get(userContextKey).(*User)
	return u
}

func (srv *Server) WebLoginPage(c echo.Context) error {
	user, err := srv.currentUser(c)
	if err != nil {
		return err
	}
	if user != nil {
		return c.Redirect(http.StatusFound, "/")
	}
	return c.Render(http.StatusOK, "login.html", pongo2.Context{})
}

func (srv *Server) WebLogin(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	var u User
	err := srv.db.WithContext(c.Request().Context()).First(&u, "username = ?", username).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		// hash anyway so missing and wrong-password take the same time
		_, _ = encodePassword(password)
		return c.Render(http.StatusBadRequest, "login.html", pongo2.Context{
			"error": "Incorrect username or password",
		})
	}
	if err := verifyPassword(u.HashedPassword, password); err != nil || !u.IsActive {
		return c.Render(http.StatusBadRequest, "login.html", pongo2.Context{
			"error": "Incorrect username or password",
		})
	}

	sess, _ := srv.sessions.Get(c.Request(), sessionName)
	sess.Values["username"] = u.Username
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}

	srv.log.Info("login", "user", u.Username)
	return c.Redirect(http.StatusFound, "/")
}

func (srv *Server) WebLogout(c echo.Context) error {
	sess, _ := srv.sessions.Get(c.Request(), sessionName)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	return c.Redirect(http.StatusFound, "/login")
}
