package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/folio-storefront/pkg/config"
	"github.com/angelmondragon/folio-storefront/pkg/logger"
)

// CartSessionHeader lets non-browser clients carry the session without cookies.
const CartSessionHeader = "X-Cart-Session"

const maxSessionIDLen = 64

// CartSession resolves the browsing session from the header or cookie and
// issues a new cookie when neither is present.
func CartSession(cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = "folio_cart"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := validSessionID(r.Header.Get(CartSessionHeader))
			if sessionID == "" {
				if cookie, err := r.Cookie(cookieName); err == nil {
					sessionID = validSessionID(cookie.Value)
				}
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sessionID,
				Path:     "/",
				HttpOnly: true,
				Secure:   cfg.SecureOnly,
				SameSite: http.SameSiteLaxMode,
				Expires:  time.Now().Add(cfg.SessionTTL),
			})
			w.Header().Set(CartSessionHeader, sessionID)

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validSessionID(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" || len(value) > maxSessionIDLen {
		return ""
	}
	for _, r := range value {
		if !(r == '-' || r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')) {
			return ""
		}
	}
	return value
}
