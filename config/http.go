package config

type HTTPConfig struct {
	Port        int
	EnabledAPIs []string
	Auth        *AuthConfig
}

type AuthConfig struct {
	Type   string
	Config any
}

func (a *AuthConfig) UnmarshalJSON(data []byte) (err error) {
	a.Type, a.Config, err = unmarshalTyped(data, "authentication", func(t string) any {
		switch t {
		case "null":
			return &NullAuth{}
		case "jwt":
			return &JWTAuth{}
		case "external":
			return &ExternalAuth{}
		default:
			return nil
		}
	})

	return
}

type NullAuth struct{}

// JWTAuth accepts HS256 bearer tokens signed with Secret and issued by Issuer.
type JWTAuth struct {
	Issuer string
	Secret string
}

// ExternalAuth trusts a user header set by a reverse proxy, optionally restricted to AllowedUsers.
type ExternalAuth struct {
	UserHeader   string
	AllowedUsers []string
}
