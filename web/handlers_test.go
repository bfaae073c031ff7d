package web

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kevincornish/xtream-loader/cachestore"
	"github.com/kevincornish/xtream-loader/xtream"
)

// One shared server for all handler tests: the prometheus middleware
// registers collectors globally and can only be set up once per process.
var (
	setupOnce sync.Once
	testWeb   *httptest.Server
	testDB    *gorm.DB
)

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func fakeUpstream() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/player_api.php" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("action") {
		case "":
			fmt.Fprint(w, `{"user_info": {"username": "sub1", "auth": 1, "status": "Active", "exp_date": "1924992000", "created_at": "1700000000", "max_connections": "2", "active_cons": "0"}, "server_info": {"url": "cdn.example.com", "port": "8080", "timezone": "Europe/London"}}`)
		case "get_live_categories":
			fmt.Fprint(w, `[{"category_id": "1", "category_name": "News", "parent_id": 0}, {"category_id": "2", "category_name": "Sports", "parent_id": 0}]`)
		case "get_live_streams":
			fmt.Fprint(w, `[{"num": 1, "name": "World News HD", "stream_id": "101", "stream_icon": "", "added": "1700000000", "category_id": "1"}, {"num": 2, "name": "Championship Sports", "stream_id": "102", "stream_icon": "", "added": "1700000000", "category_id": "2"}]`)
		case "get_series_categories":
			fmt.Fprint(w, `[{"category_id": "10", "category_name": "Drama", "parent_id": 0}]`)
		case "get_series":
			fmt.Fprint(w, `[{"num": 1, "series_id": "500", "name": "Harbour Lights", "cover": "", "plot": "A coastal town.", "rating_5based": "4.1", "category_id": "10", "backdrop_path": [], "youtube_trailer": ""}]`)
		case "get_series_info":
			fmt.Fprint(w, `{"info": {"series_id": "500", "name": "Harbour Lights", "cover": "", "plot": "A coastal town.", "backdrop_path": [], "youtube_trailer": ""}, "episodes": {"1": [{"id": "9001", "episode_num": 1, "title": "Arrival", "container_extension": "mkv", "duration": "00:45:00"}], "2": [{"id": "9002", "episode_num": 1, "title": "Return", "container_extension": "mkv", "duration": "00:44:00"}]}}`)
		case "get_vod_categories":
			fmt.Fprint(w, `[{"category_id": "20", "category_name": "Action", "parent_id": 0}]`)
		case "get_vod_streams":
			fmt.Fprint(w, `[{"num": 1, "name": "The Long Road", "stream_id": "700", "stream_icon": "", "rating_5based": 3.5, "added": "1700000000", "category_id": "20", "container_extension": "mp4"}]`)
		case "get_vod_info":
			fmt.Fprint(w, `{"info": {"name": "The Long Road", "plot": "A road movie.", "movie_image": "", "backdrop_path": [], "youtube_trailer": ""}, "movie_data": {"stream_id": "700", "name": "The Long Road", "container_extension": "mp4", "category_id": "20"}}`)
		case "get_simple_data_table":
			fmt.Fprintf(w, `{"epg_listings": [{"id": "1", "title": %q, "description": %q, "start": "2026-01-02 20:00:00", "end": "2026-01-02 21:00:00", "now_playing": "1", "has_archive": 0}]}`, b64("Evening Bulletin"), b64("The day's headlines."))
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
}

func setupTestServer(t *testing.T) {
	t.Helper()
	setupOnce.Do(func() {
		upstream := fakeUpstream()

		tmp, err := os.MkdirTemp("", "xtream-loader-test")
		if err != nil {
			panic(err)
		}

		// with :memory: the connection pool would hand each request its own
		// empty database, so use a file
		db, err := gorm.Open(sqlite.Open(filepath.Join(tmp, "test.sqlite")), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			panic(err)
		}
		if err := RunAllMigrations(db); err != nil {
			panic(err)
		}
		if _, err := CreateUser(db, "admin", "hunter22", true); err != nil {
			panic(err)
		}
		limited, err := CreateUser(db, "limited", "hunter22", false)
		if err != nil {
			panic(err)
		}
		limited.FilmsAccess = false
		if err := db.Save(limited).Error; err != nil {
			panic(err)
		}

		iconDir := filepath.Join(tmp, "icons")

		api := xtream.NewClient(upstream.URL, "sub1", "secret")
		cache := cachestore.New(cachestore.NewMemStore())

		srv, err := NewServer(db, api, cache, Config{
			Bind:          ":0",
			SessionSecret: "test-secret",
			IconDir:       iconDir,
		})
		if err != nil {
			panic(err)
		}

		testDB = db
		testWeb = httptest.NewServer(srv)
	})
}

// login returns a client holding a valid session cookie for the given user.
func login(t *testing.T, username, password string) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	resp, err := client.PostForm(testWeb.URL+"/token", url.Values{
		"username": {username},
		"password": {password},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return client
}

func noRedirects(client *http.Client) *http.Client {
	dup := *client
	dup.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &dup
}

func fetchBody(t *testing.T, client *http.Client, path string) (int, string) {
	t.Helper()
	resp, err := client.Get(testWeb.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestLoginRequired(t *testing.T) {
	setupTestServer(t)

	client := noRedirects(&http.Client{})
	resp, err := client.Get(testWeb.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLoginRejectsBadPassword(t *testing.T) {
	setupTestServer(t)

	resp, err := http.PostForm(testWeb.URL+"/token", url.Values{
		"username": {"admin"},
		"password": {"wrong"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Incorrect username or password")
}

func TestLoginUnknownUserSameError(t *testing.T) {
	setupTestServer(t)

	resp, err := http.PostForm(testWeb.URL+"/token", url.Values{
		"username": {"nobody"},
		"password": {"whatever"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Incorrect username or password")
}

func TestDashboard(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	status, body := fetchBody(t, client, "/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Dashboard")
	assert.Contains(t, body, "sub1")
	assert.Contains(t, body, "cdn.example.com")
}

func TestStreamsPage(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	status, body := fetchBody(t, client, "/streams")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "World News HD")
	assert.Contains(t, body, "Championship Sports")
	assert.Contains(t, body, "Sports") // category dropdown
}

func TestSeriesPages(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	status, body := fetchBody(t, client, "/series")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Harbour Lights")

	status, body = fetchBody(t, client, "/series/500")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "A coastal town.")
	assert.Contains(t, body, "Arrival")
	// seasons sorted numerically, episode refs carry the series id
	assert.Contains(t, body, "/stream/episode/500_9001")
	assert.Less(t, strings.Index(body, "Arrival"), strings.Index(body, "Return"))
}

func TestFilmPages(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	status, body := fetchBody(t, client, "/films")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "The Long Road")

	status, body = fetchBody(t, client, "/film/700")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "A road movie.")
	assert.Contains(t, body, "/stream/movie/700")
}

func TestEPGDecodesBase64(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	resp, err := client.Get(testWeb.URL + "/epg/101")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var payload struct {
		Listings []struct {
			Title       string `json:"Title"`
			Description string `json:"Description"`
			NowPlaying  bool   `json:"NowPlaying"`
		} `json:"listings"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	require.Len(t, payload.Listings, 1)
	assert.Equal(t, "Evening Bulletin", payload.Listings[0].Title)
	assert.Equal(t, "The day's headlines.", payload.Listings[0].Description)
	assert.True(t, payload.Listings[0].NowPlaying)
}

func TestAccessFlagBlocksSection(t *testing.T) {
	setupTestServer(t)
	client := login(t, "limited", "hunter22")

	status, _ := fetchBody(t, client, "/streams")
	assert.Equal(t, http.StatusOK, status)

	resp, err := client.Get(testWeb.URL + "/films")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminRequiresAdmin(t *testing.T) {
	setupTestServer(t)
	client := noRedirects(login(t, "limited", "hunter22"))

	resp, err := client.Get(testWeb.URL + "/admin")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
}

func TestAdminUserManagement(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	status, body := fetchBody(t, client, "/admin")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "admin")
	assert.Contains(t, body, "limited")

	resp, err := client.PostForm(testWeb.URL+"/admin/add_user", url.Values{
		"username": {"newuser"},
		"password": {"pass123"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	var u User
	require.NoError(t, testDB.First(&u, "username = ?", "newuser").Error)
	assert.False(t, u.IsAdmin)
	assert.True(t, u.IsActive)

	resp, err = client.PostForm(fmt.Sprintf("%s/admin/delete_user/%d", testWeb.URL, u.ID), nil)
	require.NoError(t, err)
	resp.Body.Close()

	err = testDB.First(&User{}, "username = ?", "newuser").Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAdminCannotDeleteSelf(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	var admin User
	require.NoError(t, testDB.First(&admin, "username = ?", "admin").Error)

	resp, err := noRedirects(client).Post(
		fmt.Sprintf("%s/admin/delete_user/%d", testWeb.URL, admin.ID), "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	require.NoError(t, testDB.First(&User{}, "username = ?", "admin").Error)
}

func TestSearch(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	status, body := fetchBody(t, client, "/search?q=news&search_type=tv")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "World News HD")
	assert.NotContains(t, body, "Championship Sports")

	status, body = fetchBody(t, client, "/search?q=harbour&search_type=series")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Harbour Lights")
}

func TestStatistics(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	status, body := fetchBody(t, client, "/statistics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Live channels")
	assert.Contains(t, body, "Local accounts")
}

func TestStreamPlayerEpisodeRef(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	status, body := fetchBody(t, client, "/stream/episode/500_9001")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "9001.mkv")

	resp, err := client.Get(testWeb.URL + "/stream/episode/garbled")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogout(t *testing.T) {
	setupTestServer(t)
	client := login(t, "admin", "hunter22")

	resp, err := client.Get(testWeb.URL + "/logout")
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = noRedirects(client).Get(testWeb.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestHealthCheck(t *testing.T) {
	setupTestServer(t)

	resp, err := http.Get(testWeb.URL + "/_health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status GenericStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "ok", status.Status)
}
