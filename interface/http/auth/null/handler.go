package null

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/bridge/interface/http/auth"
	"net/http"
)

// Identity is attached to every request when authentication is disabled.
const Identity = "anonymous"

var _ auth.AuthenticationProvider = (*Authenticator)(nil)

type Authenticator struct{}

func (a Authenticator) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), Identity)))
	})
}

func (a Authenticator) AuthenticationRouter() http.Handler {
	return mux.NewRouter()
}

func (a Authenticator) AuthenticationType() any {
	return auth.AuthenticatorType{
		Type: auth.TypeNull,
	}
}
