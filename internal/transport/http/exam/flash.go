package exam

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"exam-analyzer-go/internal/utils"
)

const (
	sessionCookie = "exam_session"
	flashCategory = "error"
	// maxFlashRunes keeps the signed cookie well under the 4 KB browser limit.
	maxFlashRunes = 512
)

// Flash is a one-shot message shown on the next page render.
type Flash struct {
	Category string
	Message  string
}

// SessionMiddleware stores flash messages in a signed cookie session.
func SessionMiddleware(secret string) gin.HandlerFunc {
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sessions.Sessions(sessionCookie, store)
}

func addFlash(c *gin.Context, logger *utils.Logger, message string) {
	session := sessions.Default(c)
	session.AddFlash(truncateRunes(message, maxFlashRunes), flashCategory)
	if err := session.Save(); err != nil {
		logger.WarnTag("HTTP", "save flash: %v", err)
	}
}

// popFlashes returns pending messages and clears them from the session.
func popFlashes(c *gin.Context, logger *utils.Logger) []Flash {
	session := sessions.Default(c)
	pending := session.Flashes(flashCategory)
	if len(pending) == 0 {
		return nil
	}
	if err := session.Save(); err != nil {
		logger.WarnTag("HTTP", "clear flashes: %v", err)
	}

	out := make([]Flash, 0, len(pending))
	for _, v := range pending {
		if msg, ok := v.(string); ok {
			out = append(out, Flash{Category: flashCategory, Message: msg})
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
