package config

type StackConfig struct {
	Type   string
	Config any
}

func (s *StackConfig) UnmarshalJSON(data []byte) (err error) {
	s.Type, s.Config, err = unmarshalTyped(data, "stack", func(t string) any {
		switch t {
		case "zstack":
			return &ZStackConfig{}
		default:
			return nil
		}
	})

	return
}

type ZStackConfig struct {
	Port struct {
		Name string
		Baud int
	}
}
