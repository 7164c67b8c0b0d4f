package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"frontdesk-service/internal/app/config"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMiddlewares() *Middlewares {
	return NewMiddlewares(zap.NewNop(), &config.InternalConfig{
		JWT: config.JWT{
			Secret:        "test-secret",
			ExpTimeInHour: 8,
		},
	})
}

func TestDeskSessionAuth(t *testing.T) {
	m := newTestMiddlewares()

	var gotDeskID string
	handler := m.DeskSessionAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotDeskID, _ = r.Context().Value(constvars.CONTEXT_DESK_SESSION_KEY).(string)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid token passes and carries desk id", func(t *testing.T) {
		token, err := utils.GenerateDeskSessionJWT("desk-3", "test-secret", 8)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/settlements/abc", nil)
		req.Header.Set(constvars.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "desk-3", gotDeskID)
	})

	t.Run("missing token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/settlements/abc", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with wrong secret rejected", func(t *testing.T) {
		token, err := utils.GenerateDeskSessionJWT("desk-3", "other-secret", 8)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/settlements/abc", nil)
		req.Header.Set(constvars.HeaderAuthorization, "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	m := newTestMiddlewares()

	handler := m.RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, _ := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
		assert.NotEmpty(t, requestID)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("generates id when absent", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Contains(t, rec.Header().Get(constvars.HeaderXRequestID), constvars.REQUEST_ID_PREFIX)
	})

	t.Run("echoes client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(constvars.HeaderXRequestID, "client-id-1")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "client-id-1", rec.Header().Get(constvars.HeaderXRequestID))
	})
}
