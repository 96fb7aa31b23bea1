package collect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ricokahler/flair/internal/sandbox"
)

// Sentinel errors for error type checking
var (
	// ErrTransform indicates the module could not be parsed or transpiled
	ErrTransform = errors.New("failed to transform")

	// ErrExecution indicates the module threw while loading
	ErrExecution = errors.New("failed to execute file")

	// ErrEvaluation indicates a style function threw
	ErrEvaluation = errors.New("failed to evaluate CSS strings")

	// ErrProcessing indicates the evaluated styles had the wrong shape or
	// could not be compiled
	ErrProcessing = errors.New("failed to process styles")

	// ErrMissingThemePath indicates Options.ThemePath was empty
	ErrMissingThemePath = errors.New("themePath is required")
)

func format(filePath string, sentinel, cause error) string {
	if cause == nil {
		return fmt.Sprintf("[%s] %s", filePath, capitalize(sentinel.Error()))
	}
	return fmt.Sprintf("[%s] %s: %v", filePath, capitalize(sentinel.Error()), cause)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func chain(sentinel, cause error) []error {
	if cause == nil {
		return []error{sentinel}
	}
	return []error{sentinel, cause}
}

// TransformError represents a module that could not be parsed or transpiled
type TransformError struct {
	FilePath string
	Cause    error
}

func (e *TransformError) Error() string { return format(e.FilePath, ErrTransform, e.Cause) }
func (e *TransformError) Unwrap() []error { return chain(ErrTransform, e.Cause) }

// ExecutionError represents a module that threw while loading
type ExecutionError struct {
	FilePath string
	Cause    error
}

func (e *ExecutionError) Error() string { return format(e.FilePath, ErrExecution, e.Cause) }
func (e *ExecutionError) Unwrap() []error { return chain(ErrExecution, e.Cause) }

// EvaluationError represents a style function that threw
type EvaluationError struct {
	FilePath string
	Cause    error
}

func (e *EvaluationError) Error() string { return format(e.FilePath, ErrEvaluation, e.Cause) }
func (e *EvaluationError) Unwrap() []error { return chain(ErrEvaluation, e.Cause) }

// ProcessingError represents styles that could not be turned into a stylesheet
type ProcessingError struct {
	FilePath string
	Cause    error
}

func (e *ProcessingError) Error() string { return format(e.FilePath, ErrProcessing, e.Cause) }
func (e *ProcessingError) Unwrap() []error { return chain(ErrProcessing, e.Cause) }

// MissingThemePathError is returned before any work when no theme is configured
type MissingThemePathError struct {
	FilePath string
}

func (e *MissingThemePathError) Error() string {
	return fmt.Sprintf("[%s] %v", e.FilePath, ErrMissingThemePath)
}
func (e *MissingThemePathError) Unwrap() error { return ErrMissingThemePath }

// stageError attributes a loader failure to filePath. Errors that do not
// carry a sandbox stage count as execution failures.
func stageError(filePath string, err error) error {
	var serr *sandbox.Error
	if !errors.As(err, &serr) {
		return &ExecutionError{FilePath: filePath, Cause: err}
	}
	switch serr.Stage {
	case sandbox.StageTransform:
		return &TransformError{FilePath: filePath, Cause: serr.Err}
	case sandbox.StageEvaluation:
		return &EvaluationError{FilePath: filePath, Cause: serr.Err}
	case sandbox.StageProcessing:
		return &ProcessingError{FilePath: filePath, Cause: serr.Err}
	default:
		return &ExecutionError{FilePath: filePath, Cause: serr.Err}
	}
}
