package common

import (
	"context"
	"fmt"

	"careerai/internal/errors"
)

// FlowFunc runs one typed flow.
type FlowFunc[Input, Output any] func(context.Context, Input) (Output, error)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc[Input any] func(input Input, cfg CommandConfig)

// RunFlowCommand runs a flow and writes its formatted result. The invoker
// logs duration and token usage itself.
func RunFlowCommand[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	input Input,
	run FlowFunc[Input, Output],
	logDetails LogDetailsFunc[Input],
) error {
	outputHandler := NewOutputHandler(logger)
	if err := outputHandler.fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(input, cmdConfig)
	}

	result, err := run(ctx, input)
	if err != nil {
		return err
	}

	if err := outputHandler.HandleOutput(result, cmdConfig); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
