package config

type LoggingConfig struct {
	Name   string `json:"-"`
	Type   string
	Config any
}

func (g *LoggingConfig) UnmarshalJSON(data []byte) (err error) {
	g.Type, g.Config, err = unmarshalTyped(data, "logging", func(t string) any {
		switch t {
		case "stdout":
			return &StdoutLogging{}
		case "file":
			return &FileLogging{}
		default:
			return nil
		}
	})

	return
}

type BaseLogging struct {
	Level string

	NegateSubsystems bool
	Subsystems       []string
	SubsystemLevels  map[string]string
}

type StdoutLogging struct {
	BaseLogging
}

type FileLogging struct {
	BaseLogging

	Filename string
	Size     int
	Count    int
	Compress bool
}
