package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prize-pool-backend/internal/common/errors"
	"prize-pool-backend/internal/common/middleware"
	"prize-pool-backend/internal/features/wallet/models"
	"prize-pool-backend/internal/features/wallet/service"
)

type stubService struct {
	service.Service
	links map[string]*models.WalletLink
	err   error
}

func (s *stubService) Challenge(_ context.Context, identity string) (*models.Challenge, error) {
	return &models.Challenge{Identity: identity, Payload: "p"}, nil
}

func (s *stubService) Link(_ context.Context, identity string, req *models.LinkRequest) (*models.WalletLink, error) {
	if s.err != nil {
		return nil, s.err
	}
	link := &models.WalletLink{Identity: identity, Address: req.Address}
	s.links[identity] = link
	return link, nil
}

func (s *stubService) Get(_ context.Context, identity string) (*models.WalletLink, error) {
	if link, ok := s.links[identity]; ok {
		return link, nil
	}
	return nil, service.ErrNotLinked
}

func newRouter(svc service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.IdentityKey, "42")
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func linkBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(models.LinkRequest{
		Address: "0:abc",
		Proof: models.Proof{
			Timestamp: 1,
			Domain:    models.ProofDomain{Value: "d"},
			Payload:   "p",
			Signature: "s",
		},
	}))
	return &buf
}

func TestWalletHandler(t *testing.T) {
	svc := &stubService{links: map[string]*models.WalletLink{}}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/wallet/challenge", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"payload":"p"`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/wallet/link", linkBody(t)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"address":"0:abc"`)
}

func TestWalletHandlerRejectsProof(t *testing.T) {
	svc := &stubService{links: map[string]*models.WalletLink{}, err: service.ErrProofExpired}
	r := newRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/wallet/link", linkBody(t)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.ErrCodeInvalidProof, resp.Error.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/wallet/link", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
