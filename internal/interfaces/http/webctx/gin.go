package webctx

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

var _ Context = (*GinContext)(nil)

// GinContext adapts a *gin.Context to the framework-neutral Context.
type GinContext struct {
	c *gin.Context
}

func FromGin(c *gin.Context) *GinContext {
	return &GinContext{c: c}
}

func (g *GinContext) Header(name string) string {
	return g.c.GetHeader(name)
}

func (g *GinContext) Query(name string) string {
	return g.c.Query(name)
}

func (g *GinContext) Cookie(name string) string {
	v, err := g.c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}

func (g *GinContext) SetHeader(name, value string) {
	g.c.Header(name, value)
}

func (g *GinContext) SetCookie(cookie Cookie) {
	http.SetCookie(g.c.Writer, &http.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		MaxAge:   cookie.MaxAge,
		Domain:   cookie.Domain,
		Path:     cookie.Path,
		Secure:   cookie.Secure,
		HttpOnly: cookie.HTTPOnly,
		SameSite: parseSameSite(cookie.SameSite),
	})
}

func (g *GinContext) Get(key string) (string, bool) {
	v, ok := g.c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (g *GinContext) Set(key, value string) {
	g.c.Set(key, value)
}

func parseSameSite(mode string) http.SameSite {
	switch mode {
	case "Strict":
		return http.SameSiteStrictMode
	case "None":
		return http.SameSiteNoneMode
	case "Lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}
