package middlewares

import (
	"context"
	"net/http"
	"strings"

	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/exceptions"
	"frontdesk-service/internal/pkg/utils"

	"go.uber.org/zap"
)

// DeskSessionAuth requires a valid desk-session bearer token and puts the
// desk id on the request context.
func (m *Middlewares) DeskSessionAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID, _ := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

		authHeader := r.Header.Get(constvars.HeaderAuthorization)
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			m.Log.Warn("DeskSessionAuth missing bearer token",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenMissing(nil))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		deskID, err := utils.ParseDeskSessionJWT(tokenString, m.InternalConfig.JWT.Secret)
		if err != nil {
			m.Log.Warn("DeskSessionAuth invalid token",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.Error(err),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenInvalidOrExpired(err))
			return
		}

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_DESK_SESSION_KEY, deskID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
