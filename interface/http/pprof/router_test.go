package pprof

import (
	"github.com/shimmeringbee/bridge/interface/http/auth/null"
	"github.com/stretchr/testify/assert"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestConstructRouter(t *testing.T) {
	t.Run("serves the profile index", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/", nil)
		if err != nil {
			t.Fatal(err)
		}

		rr := httptest.NewRecorder()
		ConstructRouter(null.Authenticator{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "goroutine")
	})

	t.Run("serves a named profile", func(t *testing.T) {
		req, err := http.NewRequest("GET", "/goroutine?debug=1", nil)
		if err != nil {
			t.Fatal(err)
		}

		rr := httptest.NewRecorder()
		ConstructRouter(null.Authenticator{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "goroutine profile")
	})
}
