package i18n

import "net/http"

// Middleware injects a localizer negotiated from the request's
// Accept-Language header into the request context.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := Match(r.Header.Get("Accept-Language"))
			ctx := WithLocalizer(r.Context(), NewLocalizer(tag.String()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
