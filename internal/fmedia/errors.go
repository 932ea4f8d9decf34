package fmedia

import (
	"errors"
	"fmt"
)

// ErrTargetNotFound marks a global command that addressed a pipe with no
// running fmedia instance behind it. Callers that treat "nothing to stop" as
// benign check for it with errors.Is.
var ErrTargetNotFound = errors.New("no running instance for pipe")

// SpawnError reports that the recorder binary could not be started at all
// (missing binary, permission denied). It is always fatal to the operation
// that triggered the spawn.
type SpawnError struct {
	Binary string
	Err    error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn %s: %v", e.Binary, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
