// Package errors provides the error taxonomy for phase execution.
//
// Errors fall into two groups.
//
// Run errors describe why a phase execution stopped:
//   - DiscoveryError: the phase directory or its plans could not be found
//   - LaunchError: a plan's subprocess could not be started at all
//   - UnitFailure: a launched subprocess exited non-zero or timed out
//   - WaveError: one or more units in a wave failed (aggregates UnitFailure)
//
// Semantic errors describe common conditions:
//   - NotFoundError: resource not found
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
//	err := errors.NewDiscoveryError("/repo/.planning/phases", errors.ErrEmptyPhase)
//	if errors.Is(err, errors.ErrEmptyPhase) { ... }
//
//	var waveErr *errors.WaveError
//	if errors.As(err, &waveErr) {
//	    for _, f := range waveErr.Failures { ... }
//	}
//
// Unit-level failures are values until the wave barrier; only the aggregate
// WaveError is returned from a run. None of these errors are retryable: a
// failed run is re-invoked explicitly and completed plans are skipped.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Discovery sentinel errors
var (
	// ErrPhaseNotFound indicates the phase directory does not exist.
	ErrPhaseNotFound = New("phase not found")
	// ErrEmptyPhase indicates the phase directory holds no plan files.
	ErrEmptyPhase = New("no plans found in phase")
)

// Execution sentinel errors
var (
	// ErrLaunchFailed indicates a subprocess could not be started.
	ErrLaunchFailed = New("failed to launch subprocess")
	// ErrUnitFailed indicates a launched subprocess reported failure.
	ErrUnitFailed = New("plan execution failed")
	// ErrWaveFailed indicates at least one unit of a wave failed.
	ErrWaveFailed = New("wave failed")
)

// General sentinel errors
var (
	// ErrTimeout indicates that an operation timed out.
	ErrTimeout = New("operation timed out")
	// ErrCanceled indicates that an operation was canceled.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput indicates that input validation failed.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error
// -----------------------------------------------------------------------------

// GSDError is implemented by every error type in this package.
type GSDError interface {
	error
	Is(target error) bool
	Severity() Severity
	IsUserFacing() bool
}

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Run Errors
// -----------------------------------------------------------------------------

// DiscoveryError reports that a phase or its plans could not be discovered.
// No partial run is attempted after a DiscoveryError.
//
// Example:
//
//	err := errors.NewDiscoveryError(".planning/phases/01-setup", errors.ErrEmptyPhase)
//	fmt.Println(err) // "discovery error [path=.planning/phases/01-setup]: no plans found in phase"
type DiscoveryError struct {
	baseError
	Path  string
	Phase string
}

// NewDiscoveryError creates a DiscoveryError for path. cause is usually
// ErrPhaseNotFound or ErrEmptyPhase.
func NewDiscoveryError(path string, cause error) *DiscoveryError {
	return &DiscoveryError{
		baseError: baseError{
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		Path: path,
	}
}

// WithPhase adds the requested phase identifier to the error context.
func (e *DiscoveryError) WithPhase(phase string) *DiscoveryError {
	e.Phase = phase
	return e
}

// Error returns the formatted error message.
func (e *DiscoveryError) Error() string {
	var parts []string
	if e.Phase != "" {
		parts = append(parts, fmt.Sprintf("phase=%s", e.Phase))
	}
	if e.Path != "" {
		parts = append(parts, fmt.Sprintf("path=%s", e.Path))
	}

	prefix := "discovery error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("discovery error [%s]", strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", prefix, e.cause)
	}
	return prefix
}

// Is checks if this error matches the target.
func (e *DiscoveryError) Is(target error) bool {
	if _, ok := target.(*DiscoveryError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// LaunchError reports that a unit's subprocess could not be started. It is
// distinct from a unit's own failure and always fatal to the run.
type LaunchError struct {
	baseError
	UnitID  string
	Command string
}

// NewLaunchError creates a LaunchError for the given unit and command.
func NewLaunchError(unitID, command string, cause error) *LaunchError {
	return &LaunchError{
		baseError: baseError{
			message:    fmt.Sprintf("could not start %q", command),
			cause:      cause,
			severity:   SeverityCritical,
			userFacing: true,
		},
		UnitID:  unitID,
		Command: command,
	}
}

// Error returns the formatted error message.
func (e *LaunchError) Error() string {
	prefix := "launch error"
	if e.UnitID != "" {
		prefix = fmt.Sprintf("launch error [unit=%s]", e.UnitID)
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *LaunchError) Is(target error) bool {
	if _, ok := target.(*LaunchError); ok {
		return true
	}
	if target == ErrLaunchFailed {
		return true
	}
	return e.baseError.Is(target)
}

// UnitFailure records a launched unit that exited non-zero or timed out.
type UnitFailure struct {
	baseError
	UnitID   string
	ExitCode int
	Stderr   string
}

// NewUnitFailure creates a UnitFailure. cause may be nil for a plain
// non-zero exit, or a TimeoutError when the unit was killed.
func NewUnitFailure(unitID string, exitCode int, stderr string, cause error) *UnitFailure {
	return &UnitFailure{
		baseError: baseError{
			message:    fmt.Sprintf("exit status %d", exitCode),
			cause:      cause,
			severity:   SeverityError,
			userFacing: true,
		},
		UnitID:   unitID,
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// Error returns the formatted error message including trimmed stderr.
func (e *UnitFailure) Error() string {
	msg := fmt.Sprintf("plan %s failed: %s", e.UnitID, e.message)
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg = fmt.Sprintf("%s\nstderr: %s", msg, s)
	}
	return msg
}

// Is checks if this error matches the target.
func (e *UnitFailure) Is(target error) bool {
	if _, ok := target.(*UnitFailure); ok {
		return true
	}
	if target == ErrUnitFailed {
		return true
	}
	return e.baseError.Is(target)
}

// WaveError aggregates every unit failure of a single wave. It is the only
// error a run returns for unit-level failures.
type WaveError struct {
	baseError
	Wave     int
	Failures []*UnitFailure
}

// NewWaveError creates a WaveError. Failures are ordered by unit ID so the
// message is stable regardless of completion order.
func NewWaveError(wave int, failures []*UnitFailure) *WaveError {
	sorted := make([]*UnitFailure, len(failures))
	copy(sorted, failures)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].UnitID < sorted[j].UnitID })

	return &WaveError{
		baseError: baseError{
			severity:   SeverityError,
			userFacing: true,
		},
		Wave:     wave,
		Failures: sorted,
	}
}

// UnitIDs returns the IDs of the failed units.
func (e *WaveError) UnitIDs() []string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = f.UnitID
	}
	return ids
}

// Error returns a message naming every failed unit with its stderr.
func (e *WaveError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "wave %d failed: %d plan(s) failed: %s",
		e.Wave, len(e.Failures), strings.Join(e.UnitIDs(), ", "))
	for _, f := range e.Failures {
		sb.WriteString("\n  - ")
		sb.WriteString(f.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual unit failures to errors.Is and errors.As.
func (e *WaveError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Is checks if this error matches the target.
func (e *WaveError) Is(target error) bool {
	if _, ok := target.(*WaveError); ok {
		return true
	}
	return target == ErrWaveFailed
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("phase", "3")
//	fmt.Println(err) // "phase '3' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("plan 01-01-PLAN.md", 30*time.Minute)
//	fmt.Println(err) // "timeout error: plan 01-01-PLAN.md (timeout: 30m0s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if target == ErrTimeout {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// IsUserFacing returns true if the error message is safe to display to end users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	var gsdErr GSDError
	if As(err, &gsdErr) {
		return gsdErr.IsUserFacing()
	}
	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement GSDError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var gsdErr GSDError
	if As(err, &gsdErr) {
		return gsdErr.Severity()
	}
	return SeverityError
}

// IsRunError reports whether err stopped a phase run (discovery, launch,
// or wave failure) as opposed to an environment or usage problem.
func IsRunError(err error) bool {
	if err == nil {
		return false
	}
	var discovery *DiscoveryError
	var launch *LaunchError
	var wave *WaveError
	return As(err, &discovery) || As(err, &launch) || As(err, &wave)
}

// Wrap wraps an error with additional context message.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
