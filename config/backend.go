package config

type BackendConfig struct {
	Type   string
	Config any
}

func (b *BackendConfig) UnmarshalJSON(data []byte) (err error) {
	b.Type, b.Config, err = unmarshalTyped(data, "backend", func(t string) any {
		switch t {
		case "serial":
			return &SerialBackend{}
		case "gpio":
			return &GPIOBackend{}
		case "mqtt":
			return &MQTTBackend{}
		default:
			return nil
		}
	})

	return
}

// SerialBackend drives a controller over a UART at 115200 8N1.
type SerialBackend struct {
	Port string
}

// GPIOBackend lists one pin name per endpoint, in endpoint order.
type GPIOBackend struct {
	Pins []string
}

type MQTTBackend struct {
	Server string

	TLS         *MQTTTLS
	Credentials *MQTTCredentials

	Retained bool
	QOS      byte

	// TopicFormat is formatted with the endpoint id, e.g. "/devices/bridge/controls/ep%d/on".
	TopicFormat string
}

type MQTTTLS struct {
	IgnoreSystemRootCertificates bool
	SkipCertificateVerification  bool
	Key                          string
	Cert                         string
	CACert                       string
}

type MQTTCredentials struct {
	Username string
	Password string
}
