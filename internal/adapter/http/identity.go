package httpadapter

import (
	"context"
	"net/http"
)

// CallerHeader carries the authenticated identity resolved by the host
// environment (auth proxy or API gateway). The value is trusted as supplied;
// this service performs no identity verification of its own.
const CallerHeader = "X-Caller"

type callerKey struct{}

// requireCaller extracts the caller identity from the request header and
// stores it in the request context. Requests without an identity are rejected
// before reaching any handler.
func (h *Handler) requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := r.Header.Get(CallerHeader)
		if caller == "" {
			http.Error(w, "missing caller identity", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerFrom returns the identity stored by requireCaller.
func callerFrom(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}
