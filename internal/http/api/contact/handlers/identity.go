package handlers

import (
	"net/http"
	"strings"

	"github.com/folio-studio/contactgate/internal/i18n"
	internalsettings "github.com/folio-studio/contactgate/internal/settings"
	"github.com/gin-gonic/gin"
)

// ClientIdentity returns the rate-limit key for r: the first X-Forwarded-For
// entry, then X-Real-IP, then X-Vercel-Forwarded-For, else "unknown".
// RemoteAddr is ignored; behind the edge proxy it is always the proxy.
func ClientIdentity(r *http.Request) string {
	for _, header := range []string{"X-Forwarded-For", "X-Real-IP", "X-Vercel-Forwarded-For"} {
		if ip := firstEntry(r.Header.Get(header)); ip != "" {
			return ip
		}
	}
	return internalsettings.UnknownIdentity
}

func firstEntry(raw string) string {
	first, _, _ := strings.Cut(raw, ",")
	return strings.TrimSpace(first)
}

// RequestLang picks the response language from ?lang= or Accept-Language.
func RequestLang(c *gin.Context) i18n.Lang {
	if raw := strings.TrimSpace(c.Query("lang")); raw != "" {
		return i18n.Parse(raw)
	}
	return i18n.Parse(c.GetHeader("Accept-Language"))
}
