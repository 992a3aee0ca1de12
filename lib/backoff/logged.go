package backoff

import (
	"github.com/TimelyDataflow/timely-dataflow-sub000/logging"
)

// Logged returns a Report function that puts every retried error onto
// logger's structured event trail as a logging.ConnectRetry event
// instead of silently discarding it, so a host process's dial-retry
// loop shows up the same way every other cross-process event does.
func Logged(logger logging.Logger, worker int) func(error) error {
	return func(err error) error {
		logger.Log(logging.Event{
			Kind:   logging.ConnectRetry,
			Worker: worker,
			Fields: map[string]any{"error": err.Error()},
		})
		return nil
	}
}
