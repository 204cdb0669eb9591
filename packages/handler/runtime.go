// Package handler runs the verbatim `> {% ... %}` script attached to a
// request through an embedded JavaScript engine, exposing the response
// and a small client API for assertions, logging, and globals.
package handler

import (
	"fmt"
	"strings"

	"github.com/robertkrimen/otto"

	httpc "github.com/abdul-hamid-achik/httprun/packages/http"
)

// TestResult is one client.test(name, fn) outcome.
type TestResult struct {
	Name    string
	Passed  bool
	Message string
}

// Result is everything a handler script produced: its test outcomes,
// its client.log() lines, and the globals it published via
// client.global.set(). GlobalsDelta is only merged into the process
// Globals table by the caller once the script has run to completion
// without error.
type Result struct {
	Tests        []TestResult
	Logs         []string
	GlobalsDelta map[string]string
	Err          error
}

// GlobalLookup resolves a previously published global for client.global.get.
type GlobalLookup func(name string) (string, bool)

// Run evaluates script against resp. A compile error or an uncaught
// exception surfaces as a single failed test named "handler error"
// rather than aborting the pipeline.
func Run(script string, resp *httpc.Response, lookup GlobalLookup) (res *Result) {
	res = &Result{GlobalsDelta: make(map[string]string)}

	defer func() {
		if r := recover(); r != nil {
			res.Tests = []TestResult{{Name: "handler error", Message: fmt.Sprintf("%v", r)}}
			res.Err = fmt.Errorf("handler error: %v", r)
		}
	}()

	vm := otto.New()

	if err := bindResponse(vm, resp); err != nil {
		res.Tests = []TestResult{{Name: "handler error", Message: err.Error()}}
		res.Err = err
		return res
	}
	bindClient(vm, res, lookup)

	if _, err := vm.Run(script); err != nil {
		res.Tests = []TestResult{{Name: "handler error", Message: err.Error()}}
		res.Err = err
		return res
	}

	return res
}

func bindResponse(vm *otto.Otto, resp *httpc.Response) error {
	var body any
	if resp.JSON.IsJSON {
		body = resp.JSON.Value
	} else {
		body = resp.Text
	}

	response := map[string]any{
		"status": resp.StatusCode,
		"body":   body,
		"contentType": map[string]any{
			"mimeType": resp.MimeType,
			"charset":  resp.Charset,
		},
		"headers": map[string]any{
			"valueOf":  func(name string) string { return resp.Header(name) },
			"valuesOf": func(name string) []string { return resp.HeaderValues(name) },
		},
		"notExecuted": resp.NotExecuted,
		"durationMs":  resp.DurationMs(),
	}

	return vm.Set("response", response)
}

// assertionMessage strips otto's "AssertionError: " prefix so a failed
// client.assert(cond, "nope") renders as "nope" rather than
// "AssertionError: nope".
func assertionMessage(err error) string {
	msg := err.Error()
	if idx := strings.LastIndex(msg, "AssertionError:"); idx >= 0 {
		return strings.TrimSpace(msg[idx+len("AssertionError:"):])
	}
	return msg
}

func bindClient(vm *otto.Otto, res *Result, lookup GlobalLookup) {
	client, _ := vm.Object(`({})`)

	client.Set("test", func(call otto.FunctionCall) otto.Value {
		name := call.Argument(0).String()
		fn := call.Argument(1)

		tr := TestResult{Name: name, Passed: true}
		if fn.IsFunction() {
			if _, err := fn.Call(otto.UndefinedValue()); err != nil {
				tr.Passed = false
				tr.Message = assertionMessage(err)
			}
		}
		res.Tests = append(res.Tests, tr)
		return otto.UndefinedValue()
	})

	client.Set("assert", func(call otto.FunctionCall) otto.Value {
		cond, _ := call.Argument(0).ToBoolean()
		if cond {
			return otto.UndefinedValue()
		}
		msg := "assertion failed"
		if len(call.ArgumentList) > 1 {
			msg = call.Argument(1).String()
		}
		panic(vm.MakeCustomError("AssertionError", msg))
	})

	client.Set("log", func(call otto.FunctionCall) otto.Value {
		parts := make([]string, len(call.ArgumentList))
		for i, a := range call.ArgumentList {
			parts[i] = a.String()
		}
		res.Logs = append(res.Logs, strings.Join(parts, " "))
		return otto.UndefinedValue()
	})

	global, _ := vm.Object(`({})`)
	global.Set("set", func(call otto.FunctionCall) otto.Value {
		name := call.Argument(0).String()
		value := call.Argument(1).String()
		res.GlobalsDelta[name] = value
		return otto.UndefinedValue()
	})
	global.Set("get", func(call otto.FunctionCall) otto.Value {
		name := call.Argument(0).String()
		if v, ok := res.GlobalsDelta[name]; ok {
			val, _ := vm.ToValue(v)
			return val
		}
		if lookup != nil {
			if v, ok := lookup(name); ok {
				val, _ := vm.ToValue(v)
				return val
			}
		}
		return otto.UndefinedValue()
	})
	client.Set("global", global)

	vm.Set("client", client)
}
