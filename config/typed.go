package config

import (
	"encoding/json"
	"fmt"
	"github.com/tidwall/gjson"
)

// unmarshalTyped decodes a {"Type": ..., "Config": {...}} stanza. construct returns the
// destination for a type, or nil if the type is unknown.
func unmarshalTyped(data []byte, what string, construct func(string) any) (string, any, error) {
	result := gjson.GetBytes(data, "Type")
	if !result.Exists() {
		return "", nil, fmt.Errorf("failed to find %s type information", what)
	}

	t := result.String()

	cfg := construct(t)
	if cfg == nil {
		return "", nil, fmt.Errorf("unknown %s configuration type: %s", what, t)
	}

	if result := gjson.GetBytes(data, "Config"); result.Exists() {
		return t, cfg, json.Unmarshal([]byte(result.Raw), cfg)
	} else {
		return "", nil, fmt.Errorf("unable to find Config stanza: %s", t)
	}
}
