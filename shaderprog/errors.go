package shaderprog

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProgram = errors.New("shaderprog: unknown program")
	ErrUnknownUniform = errors.New("shaderprog: unknown uniform")
	ErrUnknownTexture = errors.New("shaderprog: unknown texture binding")
)

// Stage names a shader stage.
type Stage string

const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
)

// CompileError reports WGSL that naga rejected.
type CompileError struct {
	Stage Stage
	Name  string
	Err   error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("shaderprog: compile %s %s stage: %v", e.Name, e.Stage, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// LinkError reports stages that compile on their own but do not fit together.
type LinkError struct {
	Name   string
	Reason string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shaderprog: link %s: %s", e.Name, e.Reason)
}
