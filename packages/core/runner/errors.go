package runner

import "fmt"

// UsageError reports a problem with how the CLI was invoked: a missing
// file, a --name that matches no request, an out-of-range --index.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

// EnvError reports a failure loading or parsing an environment profile file.
type EnvError struct {
	Path string
	Err  error
}

func (e *EnvError) Error() string {
	return fmt.Sprintf("environment %s: %v", e.Path, e.Err)
}

func (e *EnvError) Unwrap() error { return e.Err }

// TransportError reports a failure sending a request over the wire.
type TransportError struct {
	RequestName string
	Err         error
}

func (e *TransportError) Error() string {
	name := e.RequestName
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("request %s: %v", name, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HandlerError reports a handler script that failed to compile or ran
// into an uncaught exception, as opposed to a failed assertion inside it.
type HandlerError struct {
	RequestName string
	Err         error
}

func (e *HandlerError) Error() string {
	name := e.RequestName
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("handler for %s: %v", name, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// TestFailure reports a single failed client.test() assertion. A
// RequestResult collects one per failing test in its Failures field;
// it is not set as RequestResult.Err since a request can mix passing
// and failing tests and the per-test detail already renders from
// RequestResult.Tests.
type TestFailure struct {
	RequestName string
	TestName    string
	Message     string
}

func (e *TestFailure) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.RequestName, e.TestName, e.Message)
}
