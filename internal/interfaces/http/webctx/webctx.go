// Package webctx abstracts the web framework away from the token engine's
// HTTP glue. The engine itself never touches a request; everything it needs
// from one flows through these interfaces, so swapping gin for another
// framework only requires a new Context implementation.
package webctx

// Cookie carries every attribute the adapter may set on a response cookie.
type Cookie struct {
	Name     string
	Value    string
	MaxAge   int
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite string
}

// Request reads token material from an incoming request.
type Request interface {
	Header(name string) string
	Query(name string) string
	Cookie(name string) string
}

// Response writes headers and cookies on the outgoing response.
type Response interface {
	SetHeader(name, value string)
	SetCookie(cookie Cookie)
}

// Scratch is per-request storage. The login handler stashes the freshly
// minted token here so later reads within the same request see it even
// though the client has not echoed it back yet.
type Scratch interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Context bundles the three request-scoped surfaces.
type Context interface {
	Request
	Response
	Scratch
}

// scratchTokenKey is where ReadToken looks before consulting the request.
const scratchTokenKey = "tokengate:just-created-token"

// StashToken records a freshly minted token in request scratch storage.
func StashToken(ctx Context, token string) {
	ctx.Set(scratchTokenKey, token)
}

// ReadToken extracts the presented token: request scratch first, then the
// header, cookie and query parameter named tokenName. Returns "" when the
// request carries no token at all.
func ReadToken(ctx Context, tokenName string) string {
	if v, ok := ctx.Get(scratchTokenKey); ok && v != "" {
		return v
	}
	if v := ctx.Header(tokenName); v != "" {
		return v
	}
	if v := ctx.Cookie(tokenName); v != "" {
		return v
	}
	return ctx.Query(tokenName)
}

// WriteToken mirrors the token onto the response so browser clients pick it
// up without parsing the body: a response header plus a cookie scoped by
// maxAge seconds (0 means a session cookie).
func WriteToken(ctx Context, tokenName, token string, maxAge int) {
	ctx.SetHeader(tokenName, token)
	ctx.SetCookie(Cookie{
		Name:     tokenName,
		Value:    token,
		MaxAge:   maxAge,
		Path:     "/",
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
