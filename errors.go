package locator

import (
	"fmt"
	"strings"

	"github.com/xraph/go-utils/errs"
)

// Error codes. Errors are matched by code, so errors.Is against the
// sentinels below works however deeply the error is wrapped.
const (
	CodeInvalidFactory = "INVALID_FACTORY"

	// CodeServiceAlreadyExists is only reported by containers created with
	// WithStrictRegistration.
	CodeServiceAlreadyExists = "SERVICE_ALREADY_EXISTS"

	CodeServiceNotFound = "SERVICE_NOT_FOUND"

	// CodeServiceError wraps a failing or panicking factory, and start, stop
	// and health failures.
	CodeServiceError = "SERVICE_ERROR"

	CodeCircularDependency = "CIRCULAR_DEPENDENCY"

	// CodeTypeMismatch is returned by the typed helpers when the stored
	// instance is not a T.
	CodeTypeMismatch = "TYPE_MISMATCH"

	// CodeUnsupportedLifecycle rejects lifecycles other than singleton and
	// transient.
	CodeUnsupportedLifecycle = "UNSUPPORTED_LIFECYCLE"
)

var (
	// ErrInvalidFactory is returned when Register gets a nil factory.
	ErrInvalidFactory = errs.NewError(CodeInvalidFactory, "factory cannot be nil", nil)

	// Sentinels for errors.Is; they match any error carrying the same code.
	ErrServiceNotFoundSentinel      = errs.NewError(CodeServiceNotFound, "service not found", nil)
	ErrCircularDependencySentinel   = errs.NewError(CodeCircularDependency, "circular dependency", nil)
	ErrServiceAlreadyExistsSentinel = errs.NewError(CodeServiceAlreadyExists, "service already exists", nil)
	ErrServiceErrorSentinel         = errs.NewError(CodeServiceError, "service error", nil)
	ErrTypeMismatchSentinel         = errs.NewError(CodeTypeMismatch, "type mismatch", nil)
)

// coded builds an error and attaches context given as key, value pairs.
func coded(code, msg string, cause error, kv ...any) *errs.Error {
	e := errs.NewError(code, msg, cause)

	for i := 0; i+1 < len(kv); i += 2 {
		e.WithContext(kv[i].(string), kv[i+1])
	}

	return e
}

// ErrServiceAlreadyExists rejects a duplicate name on a strict container.
func ErrServiceAlreadyExists(name string) *errs.Error {
	return coded(CodeServiceAlreadyExists,
		fmt.Sprintf("service '%s' already exists", name), nil,
		"service", name)
}

// ErrServiceNotFound reports a missing service and lists every name the
// container knows, so a typo is visible in the message itself.
func ErrServiceNotFound(name string, known []string) *errs.Error {
	available := "no services registered"
	if len(known) > 0 {
		available = "available: " + strings.Join(known, ", ")
	}

	return coded(CodeServiceNotFound,
		fmt.Sprintf("service '%s' not found (%s)", name, available), nil,
		"service", name, "known", known)
}

// NewServiceError attributes cause to a service and the operation that
// failed (resolve, start, stop, health).
func NewServiceError(name, operation string, cause error) *errs.Error {
	return coded(CodeServiceError,
		fmt.Sprintf("service '%s' error during %s", name, operation), cause,
		"service", name, "operation", operation)
}

// ErrCircularDependency reports a resolution path that re-entered one of its
// own names; cycle ends with the re-entered name.
func ErrCircularDependency(cycle []string) *errs.Error {
	return coded(CodeCircularDependency,
		"circular dependency detected: "+strings.Join(cycle, " -> "), nil,
		"cycle", cycle)
}

// ErrTypeMismatch reports an instance that is not the type a typed helper asked for.
func ErrTypeMismatch(name, want string, actual any) *errs.Error {
	got := fmt.Sprintf("%T", actual)

	return coded(CodeTypeMismatch,
		fmt.Sprintf("service '%s' type mismatch: want %s, got %s", name, want, got), nil,
		"service", name, "actual_type", got)
}

// ErrUnsupportedLifecycle rejects a registration whose lifecycle the container cannot honor.
func ErrUnsupportedLifecycle(name, lifecycle string) *errs.Error {
	return coded(CodeUnsupportedLifecycle,
		fmt.Sprintf("service '%s' uses unsupported lifecycle %q", name, lifecycle), nil,
		"service", name, "lifecycle", lifecycle)
}

// IsNotFound reports whether err (or anything it wraps) is a not-found error.
func IsNotFound(err error) bool {
	return errs.Is(err, ErrServiceNotFoundSentinel)
}

// IsCircularDependency reports whether err (or anything it wraps) is a cycle error.
func IsCircularDependency(err error) bool {
	return errs.Is(err, ErrCircularDependencySentinel)
}
