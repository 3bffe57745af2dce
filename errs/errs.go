// Package errs defines the error taxonomy shared by the daemon, the HTTP
// handlers, and the CLI. Handlers map these kinds to HTTP status codes in
// exactly one place; everything else wraps with %w and lets errors.As do
// the classification.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrDaemonNotRunning is returned by the IPC client when the control socket
// cannot be reached. It never originates inside the daemon itself.
var ErrDaemonNotRunning = errors.New("daemon not running. Start with: sudo dockyard daemon")

// NotFoundError reports an operation against a slug with no stored record.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("project %q not found", e.Slug)
}

// NotFound constructs a NotFoundError for the given slug.
func NotFound(slug string) error {
	return &NotFoundError{Slug: slug}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// AlreadyExistsError reports a deploy whose derived slug collides with an
// existing record.
type AlreadyExistsError struct {
	Slug string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("project %q already exists", e.Slug)
}

// AlreadyExists constructs an AlreadyExistsError for the given slug.
func AlreadyExists(slug string) error {
	return &AlreadyExistsError{Slug: slug}
}

// IsAlreadyExists reports whether err is (or wraps) an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var ae *AlreadyExistsError
	return errors.As(err, &ae)
}

// BuildError reports a failed image build: either no Dockerfile was found or
// the engine's build stream carried an error event.
type BuildError struct {
	Message string
}

func (e *BuildError) Error() string {
	return "build failed: " + e.Message
}

// BuildFailed constructs a BuildError with the given message.
func BuildFailed(message string) error {
	return &BuildError{Message: message}
}

// GitError reports a non-zero exit from the git binary. Stderr carries the
// reason (bad URL, unknown branch, auth failure) and is preserved verbatim.
type GitError struct {
	Stderr string
}

func (e *GitError) Error() string {
	return "git error: " + e.Stderr
}

// Git constructs a GitError with the captured stderr.
func Git(stderr string) error {
	return &GitError{Stderr: stderr}
}

// ConfigError reports a malformed or unserializable configuration file.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Message
}

// Config constructs a ConfigError with the given message.
func Config(message string) error {
	return &ConfigError{Message: message}
}

// ProxyError reports a reverse-proxy admin API failure.
type ProxyError struct {
	Message string
}

func (e *ProxyError) Error() string {
	return "proxy error: " + e.Message
}

// Proxy constructs a ProxyError with the given message.
func Proxy(message string) error {
	return &ProxyError{Message: message}
}

// TunnelError reports a tunnel sub-process failure.
type TunnelError struct {
	Message string
}

func (e *TunnelError) Error() string {
	return "tunnel error: " + e.Message
}

// Tunnel constructs a TunnelError with the given message.
func Tunnel(message string) error {
	return &TunnelError{Message: message}
}

// HTTPStatus maps an error to the status code the control API responds with.
// Lookup violations get their proper 4xx codes; build, git, engine, and IO
// failures are server-side faults and stay 500.
func HTTPStatus(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsAlreadyExists(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
