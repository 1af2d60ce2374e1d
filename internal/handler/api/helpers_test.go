package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog/internal/auth"
	"github.com/olegiv/oblog/internal/middleware"
	"github.com/olegiv/oblog/internal/model"
	"github.com/olegiv/oblog/internal/service"
	"github.com/olegiv/oblog/internal/session"
	"github.com/olegiv/oblog/internal/store"
	"github.com/olegiv/oblog/internal/testutil"
)

const adminPassword = "admin-pw"

type testServer struct {
	*httptest.Server
	h       *Handler
	adminID int64
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := testutil.DB(t)

	mem := testutil.Cache(t)

	lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
		IPRateLimit:       100,
		IPBurst:           100,
		MaxFailedAttempts: 3,
	})

	events := service.NewEventService(db)
	taxonomy := service.NewTaxonomyService(db, service.TaxonomyOptions{
		DefaultCategories: []string{"Technology", "AI"},
		DefaultTags:       []string{"quantum", "ai"},
		Cache:             mem,
	})
	users := service.NewUserService(db, service.UserOptions{
		Hasher:           func(p string) (string, error) { return auth.Digest(p), nil },
		KeepLegacyHashes: true,
		Events:           events,
	})

	h := NewHandler(Deps{
		DB:              db,
		Users:           users,
		Posts:           service.NewPostService(db, service.PostOptions{Events: events, OnChange: taxonomy.Invalidate}),
		Comments:        service.NewCommentService(db),
		Taxonomy:        taxonomy,
		Subscribers:     service.NewSubscriberService(db),
		Messages:        service.NewMessageService(db),
		Stats:           service.NewStatsService(db),
		Events:          events,
		Sessions:        session.New(db, session.Config{Driver: store.DriverSQLite, IsDev: true}),
		LoginProtection: lp,
		Cache:           mem,
	})

	adminID, err := users.Register(context.Background(), service.RegisterParams{
		Username: store.DefaultAdminUsername,
		Password: adminPassword,
		Email:    "admin@example.com",
		Role:     model.RoleAdmin,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewRouter(h, RouterConfig{
		IsDev:   true,
		CSRFKey: bytes.Repeat([]byte("k"), 32),
	}))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, h: h, adminID: adminID}
}

// client is an HTTP client with its own cookie jar, i.e. its own session.
type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func (s *testServer) client(t *testing.T) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: s.URL, http: &http.Client{Jar: jar}}
}

// adminClient returns a client logged in as the seeded admin.
func (s *testServer) adminClient(t *testing.T) *client {
	c := s.client(t)
	c.login(store.DefaultAdminUsername, adminPassword)
	return c
}

// userClient registers a user and returns a client logged in as them.
func (s *testServer) userClient(t *testing.T, username string) (*client, int64) {
	c := s.client(t)
	res := c.do(http.MethodPost, "/api/v1/auth/register", map[string]any{
		"username": username,
		"password": "pw-" + username,
		"email":    username + "@example.com",
	})
	require.Equal(t, http.StatusCreated, res.status, res.raw)
	var u model.User
	res.into(&u)
	c.login(username, "pw-"+username)
	return c, u.ID
}

type result struct {
	t      *testing.T
	status int
	raw    string
	body   struct {
		Data  json.RawMessage `json:"data"`
		Meta  *Meta           `json:"meta"`
		Error *ErrorDetail    `json:"error"`
	}
}

// into decodes the data member of the envelope.
func (r result) into(dst any) {
	r.t.Helper()
	require.NoError(r.t, json.Unmarshal(r.body.Data, dst), r.raw)
}

func (c *client) do(method, path string, body any) result {
	c.t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	res := result{t: c.t, status: resp.StatusCode, raw: string(raw)}
	if len(raw) > 0 {
		require.NoError(c.t, json.Unmarshal(raw, &res.body), string(raw))
	}
	return res
}

func (c *client) login(username, password string) {
	c.t.Helper()
	res := c.do(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	require.Equal(c.t, http.StatusOK, res.status, res.raw)
}

// createPost creates a post through the API as admin and returns its id.
func (c *client) createPost(body map[string]any) int64 {
	c.t.Helper()
	if _, ok := body["content"]; !ok {
		body["content"] = "Body of **" + body["title"].(string) + "**"
	}
	if _, ok := body["category"]; !ok {
		body["category"] = "Technology"
	}
	res := c.do(http.MethodPost, "/api/v1/posts", body)
	require.Equal(c.t, http.StatusCreated, res.status, res.raw)
	var p PostResponse
	res.into(&p)
	return p.ID
}
