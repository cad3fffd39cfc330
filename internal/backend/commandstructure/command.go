package commandstructure

// Command is one step of an image pipeline. It consumes encoded image bytes and
// produces encoded image bytes.
type Command interface {
	Name() string
	Execute(imageData []byte) ([]byte, error)
}

// CommandFactory is a function type that creates a command from configuration parameters
type CommandFactory func(params map[string]any) (Command, error)

// CommandConfig represents a command configuration with name and parameters
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}
