package v1

import (
	"context"
	"github.com/shimmeringbee/bridge/interface/http/auth"
	"github.com/shimmeringbee/bridge/interface/http/auth/external"
	"github.com/shimmeringbee/bridge/interface/http/auth/jwt"
	"github.com/shimmeringbee/bridge/interface/http/auth/null"
	"github.com/shimmeringbee/bridge/registry"
	"github.com/shimmeringbee/bridge/state"
	"github.com/shimmeringbee/bridge/status"
	"github.com/shimmeringbee/logwrap"
	"github.com/shimmeringbee/logwrap/impl/discard"
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func Test_authenticationCheck(t *testing.T) {
	t.Run("returns a not authenticated value if there is no user identity", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/auth/check", nil)
		if err != nil {
			t.Fatal(err)
		}

		rr := httptest.NewRecorder()

		authenticationCheck(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "{\"authenticated\":false}", rr.Body.String())
	})

	t.Run("returns a authenticated value if there is a user identity", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/auth/check", nil)
		if err != nil {
			t.Fatal(err)
		}

		req = req.WithContext(auth.WithIdentity(context.Background(), "installer"))
		rr := httptest.NewRecorder()

		authenticationCheck(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "{\"authenticated\":true,\"identity\":\"installer\"}", rr.Body.String())
	})
}

func Test_authenticationType(t *testing.T) {
	t.Run("returns the authentication type data marshalled as JSON", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/auth/type", nil)
		if err != nil {
			t.Fatal(err)
		}

		rr := httptest.NewRecorder()

		authenticationType(null.Authenticator{})(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("content-type"))
		assert.Equal(t, "{\"type\":\"null\"}", rr.Body.String())
	})
}

func newAuthenticatedRouter(t *testing.T, ap auth.AuthenticationProvider) http.Handler {
	r, err := registry.New(10, [registry.Size]string{"GPIO3", "GPIO4"})
	assert.NoError(t, err)

	return ConstructRouter(status.NewTracker(r), state.NewEventBus(), logwrap.New(discard.Discard()), ap)
}

func serve(h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range header {
		req.Header[k] = v
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	return rr
}

func TestConstructRouter_Authentication(t *testing.T) {
	jwtAuth := jwt.Authenticator{Issuer: "bridge", TTL: time.Minute, Secret: []byte("bridge-secret")}

	token, err := jwtAuth.Sign("installer")
	assert.NoError(t, err)

	bearer := http.Header{"Authorization": []string{"Bearer " + token}}

	t.Run("reports the authenticator type without authentication", func(t *testing.T) {
		h := newAuthenticatedRouter(t, jwtAuth)

		rr := serve(h, "/auth/type", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "{\"type\":\"jwt\"}", rr.Body.String())
	})

	t.Run("bridge status and endpoints require a bearer token", func(t *testing.T) {
		h := newAuthenticatedRouter(t, jwtAuth)

		assert.Equal(t, http.StatusUnauthorized, serve(h, "/status", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, serve(h, "/endpoints", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, serve(h, "/endpoints/10", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, serve(h, "/websocket", nil).Code)

		assert.Equal(t, http.StatusOK, serve(h, "/status", bearer).Code)
		assert.Equal(t, http.StatusOK, serve(h, "/endpoints/10", bearer).Code)
	})

	t.Run("rejects a token signed with another secret", func(t *testing.T) {
		h := newAuthenticatedRouter(t, jwtAuth)

		other := jwt.Authenticator{Issuer: "bridge", TTL: time.Minute, Secret: []byte("other-secret")}
		forged, err := other.Sign("installer")
		assert.NoError(t, err)

		rr := serve(h, "/status", http.Header{"Authorization": []string{"Bearer " + forged}})
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("auth check reports the token identity", func(t *testing.T) {
		h := newAuthenticatedRouter(t, jwtAuth)

		rr := serve(h, "/auth/check", bearer)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "{\"authenticated\":true,\"identity\":\"installer\"}", rr.Body.String())
	})

	t.Run("external authentication refuses users not allowed to reach the bridge", func(t *testing.T) {
		h := newAuthenticatedRouter(t, external.Authenticator{AllowedUsers: []string{"installer"}})

		assert.Equal(t, http.StatusUnauthorized, serve(h, "/endpoints", nil).Code)
		assert.Equal(t, http.StatusForbidden, serve(h, "/endpoints", http.Header{external.DefaultUserHeader: []string{"guest"}}).Code)
		assert.Equal(t, http.StatusOK, serve(h, "/endpoints", http.Header{external.DefaultUserHeader: []string{"installer"}}).Code)
	})

	t.Run("null authentication reports the anonymous identity", func(t *testing.T) {
		h := newAuthenticatedRouter(t, null.Authenticator{})

		rr := serve(h, "/auth/check", nil)

		assert.Equal(t, "{\"authenticated\":true,\"identity\":\"anonymous\"}", rr.Body.String())
	})
}
