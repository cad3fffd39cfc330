package commandstructure

import (
	"fmt"
	"log/slog"
	"time"
)

// CommandInvoker executes a sequence of commands on image data
type CommandInvoker struct {
	commands []Command
}

// NewCommandInvoker creates a new command invoker
func NewCommandInvoker(commands []Command) *CommandInvoker {
	return &CommandInvoker{
		commands: commands,
	}
}

// NewCommandInvokerFromConfigs creates every configured command up front so
// configuration mistakes surface at startup instead of on the first request.
func NewCommandInvokerFromConfigs(registry *CommandRegistry, configs []CommandConfig) (*CommandInvoker, error) {
	commands := make([]Command, 0, len(configs))
	for i, config := range configs {
		command, err := registry.Create(config.Name, config.Params)
		if err != nil {
			return nil, fmt.Errorf("failed to create command at index %d (%s): %w", i, config.Name, err)
		}
		commands = append(commands, command)
	}
	return NewCommandInvoker(commands), nil
}

// CommandNames returns the names of the commands in execution order
func (i *CommandInvoker) CommandNames() []string {
	names := make([]string, len(i.commands))
	for idx, command := range i.commands {
		names[idx] = command.Name()
	}
	return names
}

// Execute applies all commands in sequence to the image data
func (i *CommandInvoker) Execute(imageData []byte) ([]byte, error) {
	start := time.Now()

	slog.Info("starting image processing pipeline",
		"command_count", len(i.commands),
		"input_size_bytes", len(imageData))

	if len(i.commands) == 0 {
		slog.Debug("no commands to execute, returning original image")
		return imageData, nil
	}

	currentData := imageData

	for idx, command := range i.commands {
		commandStart := time.Now()

		slog.Debug("executing command",
			"index", idx,
			"command_name", command.Name(),
			"input_size_bytes", len(currentData))

		processedData, err := command.Execute(currentData)
		if err != nil {
			slog.Error("command execution failed",
				"index", idx,
				"command_name", command.Name(),
				"error", err,
				"input_size_bytes", len(currentData))
			return nil, fmt.Errorf("command %s (index %d) failed: %w", command.Name(), idx, err)
		}

		slog.Debug("command completed",
			"index", idx,
			"command_name", command.Name(),
			"duration_ms", time.Since(commandStart).Milliseconds(),
			"output_size_bytes", len(processedData))

		currentData = processedData
	}

	slog.Info("image processing pipeline completed",
		"total_duration_ms", time.Since(start).Milliseconds(),
		"command_count", len(i.commands),
		"final_size_bytes", len(currentData))

	return currentData, nil
}
