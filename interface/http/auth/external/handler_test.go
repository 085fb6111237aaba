package external

import (
	"github.com/shimmeringbee/bridge/interface/http/auth"
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthenticator_AuthenticationMiddleware(t *testing.T) {
	t.Run("sets the user identity from the default header", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/", nil)
		if err != nil {
			t.Fatal(err)
		}

		expectedUser := "doctor"
		req.Header.Add(DefaultUserHeader, expectedUser)

		a := Authenticator{}

		handler := a.AuthenticationMiddleware(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity, _ := auth.Identity(request.Context())
			assert.Equal(t, expectedUser, identity)
			writer.WriteHeader(200)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("uses a configured header", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/", nil)
		if err != nil {
			t.Fatal(err)
		}

		req.Header.Add("Remote-User", "companion")

		a := Authenticator{UserHeader: "Remote-User"}

		handler := a.AuthenticationMiddleware(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity, _ := auth.Identity(request.Context())
			assert.Equal(t, "companion", identity)
			writer.WriteHeader(200)
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("returns 401 when the header is not set", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/", nil)
		if err != nil {
			t.Fatal(err)
		}

		a := Authenticator{}

		handler := a.AuthenticationMiddleware(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			t.Fatal("Downstream handler called, and should not have been.")
		}))

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAuthenticator_AllowedUsers(t *testing.T) {
	serve := func(a Authenticator, user string) int {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(DefaultUserHeader, user)

		rr := httptest.NewRecorder()
		a.AuthenticationMiddleware(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		})).ServeHTTP(rr, req)

		return rr.Code
	}

	t.Run("passes a user named in the allowed users", func(t *testing.T) {
		a := Authenticator{AllowedUsers: []string{"operator", "installer"}}
		assert.Equal(t, http.StatusOK, serve(a, "installer"))
	})

	t.Run("returns 403 for an authenticated user not allowed", func(t *testing.T) {
		a := Authenticator{AllowedUsers: []string{"operator"}}
		assert.Equal(t, http.StatusForbidden, serve(a, "guest"))
	})

	t.Run("passes any user when no allowed users are configured", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(Authenticator{}, "guest"))
	})
}

func TestAuthenticator_AuthenticationType(t *testing.T) {
	t.Run("reports the external type", func(t *testing.T) {
		assert.Equal(t, auth.AuthenticatorType{Type: auth.TypeExternal}, Authenticator{}.AuthenticationType())
	})
}
