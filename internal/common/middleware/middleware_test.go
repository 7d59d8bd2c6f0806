package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prize-pool-backend/internal/common/cache"
	"prize-pool-backend/internal/common/errors"
)

const testBotToken = "123456:TEST-TOKEN"

func init() {
	gin.SetMode(gin.TestMode)
}

// signInitData builds Mini App init-data signed the way Telegram does.
func signInitData(t *testing.T, token string, userID int64, authDate time.Time) string {
	t.Helper()

	user, err := json.Marshal(map[string]interface{}{"id": userID, "first_name": "Test"})
	require.NoError(t, err)

	values := map[string]string{
		"auth_date": strconv.FormatInt(authDate.Unix(), 10),
		"query_id":  "AAH-test",
		"user":      string(user),
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values[k])
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(token))
	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))

	q := url.Values{}
	for k, v := range values {
		q.Set(k, v)
	}
	q.Set("hash", hex.EncodeToString(mac.Sum(nil)))
	return q.Encode()
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.Use(handlers...)
	r.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"identity": GetIdentity(c)})
	})
	return r
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestTelegramInitData(t *testing.T) {
	r := newRouter(TelegramInitData(testBotToken, time.Hour))

	t.Run("valid header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(InitDataHeader, signInitData(t, testBotToken, 4242, time.Now()))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"identity":"4242"}`, w.Body.String())
	})

	t.Run("legacy header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("init_data", signInitData(t, testBotToken, 7, time.Now()))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"identity":"7"}`, w.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		resp := decodeError(t, w)
		assert.False(t, resp.Success)
		assert.Equal(t, errors.ErrCodeUnauthorized, resp.Error.Code)
		assert.NotEmpty(t, resp.RequestID)
	})

	t.Run("wrong token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(InitDataHeader, signInitData(t, "other:token", 1, time.Now()))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("expired", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set(InitDataHeader, signInitData(t, testBotToken, 1, time.Now().Add(-2*time.Hour)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func stubIdentity(identity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity != "" {
			c.Set(IdentityKey, identity)
		}
		c.Next()
	}
}

func TestRequireAdmin(t *testing.T) {
	cases := []struct {
		name     string
		identity string
		status   int
	}{
		{"admin", "100", http.StatusOK},
		{"padded admin list entry", "200", http.StatusOK},
		{"not admin", "300", http.StatusForbidden},
		{"anonymous", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(stubIdentity(tc.identity), RequireAdmin([]string{"100", " 200 ", ""}))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRequireAuth(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(RequireAuth()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	newRouter(stubIdentity("1"), RequireAuth()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("X-Request-ID", "req-1")
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	r := newRouter()
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, errors.ErrCodeInternal, resp.Error.Code)
	assert.Equal(t, "kaboom", resp.Error.Details["panic"])
}

func TestHTTPStatus(t *testing.T) {
	cases := map[errors.ErrorCode]int{
		errors.ErrCodeInvalidAmount:       http.StatusBadRequest,
		errors.ErrCodePoolNotInitialized:  http.StatusNotFound,
		errors.ErrCodeOwnerMismatch:       http.StatusForbidden,
		errors.ErrCodeVrf:                 http.StatusConflict,
		errors.ErrCodeInsufficientBalance: http.StatusUnprocessableEntity,
		errors.ErrCodeNoRewardToClaim:     http.StatusUnprocessableEntity,
		errors.ErrCodeTransferFailed:      http.StatusBadGateway,
		errors.ErrCodeStorageError:        http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, HTTPStatus(errors.New(code, "x")), string(code))
	}
}

func TestResponseCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	svc := cache.NewCacheService(client)

	hits := 0
	r := gin.New()
	r.Use(stubIdentity("1"), ResponseCache(svc, "httpcache:test", time.Minute), InvalidateCache(svc, "httpcache:test"))
	r.GET("/count", func(c *gin.Context) {
		hits++
		c.JSON(http.StatusOK, gin.H{"hits": hits})
	})
	r.POST("/bump", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	get := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/count", nil))
		return w
	}

	first := get()
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get()
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, hits)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/bump", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	third := get()
	assert.Equal(t, "MISS", third.Header().Get("X-Cache"))
	assert.Equal(t, 2, hits)
}
