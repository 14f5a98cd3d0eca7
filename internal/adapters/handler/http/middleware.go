package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
)

type contextKey string

const identityKey contextKey = "identity"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSONResponse writes a JSON response with the given status code.
func JSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, errorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// ServiceError maps domain failures onto HTTP statuses. The presentation
// layer owns user messaging; this keeps the mapping in one place.
func ServiceError(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		ErrorResponse(w, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrInvalidPollID):
		ErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrPollNotFound):
		ErrorResponse(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		ErrorResponse(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrPollClosed),
		errors.Is(err, domain.ErrAlreadyVoted),
		errors.Is(err, domain.ErrPollHasVotes),
		errors.Is(err, domain.ErrConflict):
		ErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrTransient):
		ErrorResponse(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("unhandled service error", "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "internal server error")
	}
}

// RequestLogger logs each request with method, path, status and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// AuthMiddleware resolves the caller identity from a JWT issued by the
// external identity provider. The token is verified, never issued, here.
type AuthMiddleware struct {
	secret []byte
}

func NewAuthMiddleware(secret string) *AuthMiddleware {
	return &AuthMiddleware{secret: []byte(secret)}
}

// Require rejects requests without a valid identity.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.resolve(r)
		if err != nil {
			ErrorResponse(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), identity)))
	})
}

// Optional resolves the identity when a token is present and passes the
// request through anonymously otherwise.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, err := m.resolve(r); err == nil {
			r = r.WithContext(withIdentity(r.Context(), identity))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) resolve(r *http.Request) (*domain.Identity, error) {
	tokenStr := bearerToken(r)
	if tokenStr == "" {
		if cookie, err := r.Cookie("access_token"); err == nil {
			tokenStr = cookie.Value
		}
	}
	if tokenStr == "" {
		return nil, errors.New("missing token")
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, errors.New("missing subject")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("invalid subject")
	}

	identity := &domain.Identity{ID: id}
	if name, ok := claims["name"].(string); ok {
		identity.DisplayName = name
	}
	return identity, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func withIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// identityFrom returns the resolved caller identity, or nil for
// anonymous requests.
func identityFrom(r *http.Request) *domain.Identity {
	identity, _ := r.Context().Value(identityKey).(*domain.Identity)
	return identity
}
