package config

import (
	"encoding/json"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestParseHTTP(t *testing.T) {
	t.Run("parses without authentication", func(t *testing.T) {
		h := HTTPConfig{}

		err := json.Unmarshal([]byte(`{"Port":3000,"EnabledAPIs":["v1","metrics"]}`), &h)
		assert.NoError(t, err)

		assert.Equal(t, 3000, h.Port)
		assert.Contains(t, h.EnabledAPIs, "metrics")
		assert.Nil(t, h.Auth)
	})

	t.Run("parses jwt authentication", func(t *testing.T) {
		h := HTTPConfig{}

		err := json.Unmarshal([]byte(`{"Port":3000,"Auth":{"Type":"jwt","Config":{"Issuer":"home","Secret":"s3cret"}}}`), &h)
		assert.NoError(t, err)

		jwtAuth, ok := h.Auth.Config.(*JWTAuth)
		assert.True(t, ok)
		assert.Equal(t, "home", jwtAuth.Issuer)
		assert.Equal(t, "s3cret", jwtAuth.Secret)
	})

	t.Run("errors on unknown authentication", func(t *testing.T) {
		h := HTTPConfig{}

		err := json.Unmarshal([]byte(`{"Port":3000,"Auth":{"Type":"oauth","Config":{}}}`), &h)
		assert.Error(t, err)
	})
}
