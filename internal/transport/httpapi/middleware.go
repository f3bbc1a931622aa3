package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v7"
	"github.com/didip/tollbooth/v7/limiter"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/platform/id"
	"github.com/questforge/questforge/internal/services/auth/token"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	claimsKey    contextKey = "auth_claims"
	userSlotKey  contextKey = "auth_user_slot"
)

// userSlot lets Authenticate report the user ID back to the request
// logger, which sits earlier in the middleware chain.
type userSlot struct {
	id string
}

// RequestIDFromContext returns the request ID, or empty when absent.
func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(token.Claims)
	return claims, ok
}

// RequestID assigns each request an ID, honoring an inbound
// X-Request-ID header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = id.NewID()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))
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

// ClientIP returns the requesting client's address, trusting proxy
// headers before falling back to the socket peer.
func ClientIP(r *http.Request) string {
	if forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-IP")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			slot := &userSlot{}
			r = r.WithContext(context.WithValue(r.Context(), userSlotKey, slot))
			next.ServeHTTP(recorder, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", recorder.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("client_ip", ClientIP(r)),
				zap.String("user_id", slot.id),
				zap.String("request_id", RequestIDFromContext(r.Context())))
		})
	}
}

// Recover converts panics into a 500 envelope response.
func Recover(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					logger.Error("panic recovered",
						zap.Any("panic", recovered),
						zap.String("path", r.URL.Path),
						zap.String("request_id", RequestIDFromContext(r.Context())))
					WriteError(w, r, nil, apperrors.New(apperrors.CodeInternal, "internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Trace opens one span per request.
func Trace(service string) func(http.Handler) http.Handler {
	tracer := otel.Tracer(service)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				))
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimit builds a per-client-IP limiter allowing perMinute requests
// each minute. Exceeding it returns the envelope with a Retry-After.
func RateLimit(perMinute float64) func(http.Handler) http.Handler {
	lmt := tollbooth.NewLimiter(perMinute/60.0, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	})
	lmt.SetBurst(int(perMinute))
	lmt.SetIPLookups([]string{"X-Forwarded-For", "X-Real-IP", "RemoteAddr"})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpError := tollbooth.LimitByRequest(lmt, w, r); httpError != nil {
				w.Header().Set("Retry-After", "60")
				WriteError(w, r, nil, apperrors.New(apperrors.CodeRateLimited, "rate limit exceeded, retry later"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccessVerifier validates bearer tokens.
type AccessVerifier interface {
	VerifyAccess(value string) (token.Claims, error)
}

// Authenticate requires a valid bearer access token and stores its
// claims on the request context.
func Authenticate(verifier AccessVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if header == "" {
				WriteError(w, r, nil, apperrors.New(apperrors.CodeAuthAccessTokenMissing, "authorization header is required"))
				return
			}
			scheme, value, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
				WriteError(w, r, nil, apperrors.New(apperrors.CodeAuthAccessTokenInvalid, "authorization header must be a bearer token"))
				return
			}
			claims, err := verifier.VerifyAccess(strings.TrimSpace(value))
			if err != nil {
				switch {
				case errors.Is(err, token.ErrExpiredToken):
					err = apperrors.Wrap(apperrors.CodeAuthAccessTokenExpired, "access token is expired", err)
				case apperrors.CodeOf(err) == apperrors.CodeUnknown:
					err = apperrors.Wrap(apperrors.CodeAuthAccessTokenInvalid, "access token is invalid", err)
				}
				WriteError(w, r, nil, err)
				return
			}
			if slot, ok := r.Context().Value(userSlotKey).(*userSlot); ok {
				slot.id = claims.UserID
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}
