package recorder

import "github.com/aduval/bessplan/core/factory"

var registry = factory.NewRegistry[Recorder]()

// Register adds a recorder factory identified by name.
func Register(name string, f factory.Factory[Recorder]) error {
	return registry.Register(name, f)
}

// NewFromConfig builds the configured recorder. An empty type records nothing.
func NewFromConfig(cfg factory.ModuleConfig) (Recorder, error) {
	if cfg.Type == "" {
		return NewNoopRecorder(), nil
	}
	return registry.Create(cfg)
}

func init() {
	_ = Register("noop", func(map[string]any) (Recorder, error) {
		return NewNoopRecorder(), nil
	})

	_ = Register("sqlite", func(conf map[string]any) (Recorder, error) {
		var c struct {
			Path string `json:"path"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewSQLiteRecorder(c.Path)
	})
}
