package external

import (
	"github.com/gorilla/mux"
	"github.com/shimmeringbee/bridge/interface/http/auth"
	"net/http"
)

var _ auth.AuthenticationProvider = (*Authenticator)(nil)

const DefaultUserHeader string = "X-Forwarded-User"

// Authenticator trusts the user header set by a reverse proxy in front of the bridge. With AllowedUsers set, any
// other user the proxy authenticated is refused, as every identity may actuate the bridge's outputs.
type Authenticator struct {
	UserHeader   string
	AllowedUsers []string
}

func (a Authenticator) header() string {
	if len(a.UserHeader) == 0 {
		return DefaultUserHeader
	}

	return a.UserHeader
}

func (a Authenticator) allowed(user string) bool {
	if len(a.AllowedUsers) == 0 {
		return true
	}

	for _, allowed := range a.AllowedUsers {
		if allowed == user {
			return true
		}
	}

	return false
}

func (a Authenticator) AuthenticationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(a.header())

		switch {
		case len(user) == 0:
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		case !a.allowed(user):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		default:
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), user)))
		}
	})
}

func (a Authenticator) AuthenticationRouter() http.Handler {
	return mux.NewRouter()
}

func (a Authenticator) AuthenticationType() any {
	return auth.AuthenticatorType{
		Type: auth.TypeExternal,
	}
}
