package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/microblog/config"
	"github.com/d60-Lab/microblog/internal/api/handler"
	"github.com/d60-Lab/microblog/internal/cache"
	"github.com/d60-Lab/microblog/internal/model"
	"github.com/d60-Lab/microblog/internal/repository"
	"github.com/d60-Lab/microblog/internal/service"
	"github.com/d60-Lab/microblog/pkg/database"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t *testing.T
	h http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := &config.Config{
		Server:    config.ServerConfig{Mode: "test"},
		Database:  config.DatabaseConfig{Driver: "sqlite", DSN: "file::memory:?_foreign_keys=on", MaxOpenConns: 1, LogLevel: "silent"},
		Graph:     config.GraphConfig{AllowSelfFollow: false, AvatarSize: 80},
		RateLimit: config.RateLimitConfig{RPS: 0},
	}
	db, err := database.InitDB(cfg)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	postRepo := repository.NewPostRepository(db)

	userSvc := service.NewUserService(db, userRepo, followRepo, cfg.Graph.AvatarSize)
	relSvc := service.NewRelationshipService(db, userRepo, followRepo, cache.NewFollowCache(rdb, 0), cfg.Graph.AllowSelfFollow)
	h := handler.NewHandler(userSvc, relSvc, service.NewPublisher(db, userRepo, postRepo))

	r, err := NewRouter(cfg, h, userSvc, nil)
	require.NoError(t, err)
	return &testServer{t: t, h: r}
}

func (s *testServer) do(method, path string, userID uint, body interface{}) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set("X-User-ID", fmt.Sprint(userID))
	}
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *testServer) register(nickname, email string) uint {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/users", 0, obj{"nickname": nickname, "email": email})
	require.Equal(s.t, http.StatusCreated, code, env.Message)
	var u struct {
		ID uint `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &u))
	return u.ID
}

type obj = map[string]interface{}

func TestRouter_FollowFlow(t *testing.T) {
	s := newTestServer(t)
	john := s.register("john", "john@example.com")
	susan := s.register("susan", "susan@example.com")

	code, env := s.do(http.MethodPost, "/api/v1/relations/follow", john, obj{"target_id": susan})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"changed":true}`, string(env.Data))

	code, env = s.do(http.MethodPost, "/api/v1/relations/follow", john, obj{"target_id": susan})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"changed":false}`, string(env.Data))

	_, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/is-following", susan), john, nil)
	assert.JSONEq(t, `{"following":true}`, string(env.Data))
	_, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/is-following", john), susan, nil)
	assert.JSONEq(t, `{"following":false}`, string(env.Data))

	code, env = s.do(http.MethodPost, "/api/v1/posts", susan, obj{"body": "hi from susan"})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = s.do(http.MethodGet, "/api/v1/feed", john, nil)
	require.Equal(t, http.StatusOK, code)
	var feed []struct {
		Body   string `json:"body"`
		UserID uint   `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "hi from susan", feed[0].Body)
	assert.Equal(t, susan, feed[0].UserID)

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", john), 0, nil)
	require.Equal(t, http.StatusOK, code)
	var profile service.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, int64(1), profile.Following)
	assert.Contains(t, profile.Avatar, "s=80")

	code, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/followers", susan), 0, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"nickname":"john"`)

	code, env = s.do(http.MethodPost, "/api/v1/relations/unfollow", john, obj{"target_id": susan})
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"changed":true}`, string(env.Data))

	_, env = s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d/is-following", susan), john, nil)
	assert.JSONEq(t, `{"following":false}`, string(env.Data))
}

func TestRouter_RegisterMaxLengthNickname(t *testing.T) {
	s := newTestServer(t)
	long := strings.Repeat("n", model.MaxNicknameLen)
	s.register(long, "first@example.com")
	second := s.register(long, "second@example.com")

	code, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", second), 0, nil)
	require.Equal(t, http.StatusOK, code)
	var profile service.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.LessOrEqual(t, len(profile.User.Nickname), model.MaxNicknameLen)
	assert.Equal(t, strings.Repeat("n", model.MaxNicknameLen-1)+"2", profile.User.Nickname)
}

func TestRouter_Errors(t *testing.T) {
	s := newTestServer(t)
	john := s.register("john", "john@example.com")

	// 昵称冲突自动加后缀
	second := s.register("john", "john2@example.com")
	code, env := s.do(http.MethodGet, fmt.Sprintf("/api/v1/users/%d", second), 0, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"nickname":"john2"`)

	code, _ = s.do(http.MethodPost, "/api/v1/users", 0, obj{"nickname": "bad name!", "email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodPost, "/api/v1/users", 0, obj{"nickname": "other", "email": "john@example.com"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = s.do(http.MethodPost, "/api/v1/relations/follow", 0, obj{"target_id": john})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/v1/relations/follow", john, obj{"target_id": john})
	assert.Equal(t, http.StatusBadRequest, code, "self-follow disabled in this config")

	code, _ = s.do(http.MethodPost, "/api/v1/relations/follow", john, obj{"target_id": 4040})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/api/v1/users/4040", 0, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/api/v1/feed?before=yesterday", john, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(http.MethodGet, "/api/v1/feed?before_id=3", john, nil)
	assert.Equal(t, http.StatusBadRequest, code, "before_id needs before")

	code, _ = s.do(http.MethodGet, "/api/v1/feed?before=2024-03-01T12:00:00Z&before_id=3", john, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, code)
}
