package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/httprun/packages/core/env"
	"github.com/abdul-hamid-achik/httprun/packages/core/parser"
	"github.com/abdul-hamid-achik/httprun/packages/handler"
	httpc "github.com/abdul-hamid-achik/httprun/packages/http"
)

// DefaultEnvFileName is the conventional name of the public environment
// profile file, looked for next to the request file unless --env-file
// overrides it.
const DefaultEnvFileName = "http-client.env.json"

// Config drives one pipeline run over a request file.
type Config struct {
	EnvFile    string // overrides the default http-client.env.json path
	Profile    string // --env
	NameFilter string // --name
	Index      int    // --index, 0 means unset
	Verbose    bool
	DryRun     bool
	Timeout    time.Duration
}

// Globals is the process-wide table handler scripts publish to via
// client.global.set and later requests read back via {{token}}
// substitution. It is backed by the resolver's own global scope so a
// single source of truth serves both substitution and lookup.
type Globals struct {
	resolver *env.Resolver
}

func (g *Globals) Set(name, value string)        { g.resolver.SetGlobal(name, value) }
func (g *Globals) Get(name string) (string, bool) { return g.resolver.GetGlobal(name) }

// WarnFunc receives warnings emitted during a run (unresolved
// variables, --index overriding --name).
type WarnFunc func(format string, args ...any)

type Runner struct {
	client   *httpc.Client
	resolver *env.Resolver
	globals  *Globals
	config   *Config
	warn     WarnFunc
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	opts := []httpc.ClientOption{httpc.WithFollowRedirects(true)}
	if cfg.Timeout > 0 {
		opts = append(opts, httpc.WithTimeout(cfg.Timeout))
	}

	return &Runner{
		client: httpc.NewClient(opts...),
		config: cfg,
		warn: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}
}

// SetWarnFunc overrides how warnings are reported; primarily for tests.
func (r *Runner) SetWarnFunc(fn WarnFunc) { r.warn = fn }

// TestOutcome is one client.test() result attached to a RequestResult.
type TestOutcome = handler.TestResult

// RequestResult is the outcome of running, skipping, or dry-running one
// request from the file.
type RequestResult struct {
	Name           string
	Index          int
	Method         string
	URL            string
	RequestHeaders []httpc.Header
	RequestBody    string
	Skipped        bool
	SkipReason     string
	DryRun         bool
	Passed         bool
	Response       *httpc.Response
	Tests          []TestOutcome
	Failures       []*TestFailure
	Logs           []string
	Duration       time.Duration
	Err            error
}

// RunResult is the accumulated outcome of one pipeline run.
type RunResult struct {
	File     string
	Results  []*RequestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

// RunFile parses path, loads its environment profile, and runs every
// selected request sequentially.
func (r *Runner) RunFile(path string) (*RunResult, error) {
	requests, err := parser.ParseFile(path)
	if err != nil {
		if perr, ok := err.(*parser.ParseError); ok {
			return nil, perr
		}
		return nil, &UsageError{Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	envFile := r.config.EnvFile
	if envFile == "" {
		envFile = filepath.Join(filepath.Dir(path), DefaultEnvFileName)
	}

	environment, err := env.LoadEnvironment(envFile, r.config.Profile)
	if err != nil {
		return nil, &EnvError{Path: envFile, Err: err}
	}

	r.resolver = env.NewResolver(environment.Variables)
	r.resolver.SetWarnFunc(func(format string, args ...any) { r.warn(format, args...) })
	r.globals = &Globals{resolver: r.resolver}

	selected, err := r.selectRequests(requests)
	if err != nil {
		return nil, err
	}

	return r.runRequests(path, requests, selected), nil
}

// selectRequests applies --index (if set, taking precedence over
// --name) or --name, returning every request when neither is set.
func (r *Runner) selectRequests(requests []*parser.Request) ([]*parser.Request, error) {
	if r.config.Index > 0 {
		if r.config.NameFilter != "" {
			r.warn("both --index and --name given; --index takes precedence")
		}
		for _, req := range requests {
			if req.Index == r.config.Index {
				return []*parser.Request{req}, nil
			}
		}
		return nil, &UsageError{Message: fmt.Sprintf("no request at index %d", r.config.Index)}
	}

	if r.config.NameFilter != "" {
		needle := strings.ToLower(r.config.NameFilter)
		var filtered []*parser.Request
		for _, req := range requests {
			if req.Name != "" && strings.Contains(strings.ToLower(req.Name), needle) {
				filtered = append(filtered, req)
			}
		}
		if len(filtered) == 0 {
			return nil, &UsageError{Message: fmt.Sprintf("no request matches --name %q", r.config.NameFilter)}
		}
		return filtered, nil
	}

	return requests, nil
}

func (r *Runner) runRequests(path string, all, selected []*parser.Request) *RunResult {
	start := time.Now()
	result := &RunResult{File: path}

	selectedIndex := make(map[int]bool, len(selected))
	for _, req := range selected {
		selectedIndex[req.Index] = true
	}

	for _, req := range all {
		if !selectedIndex[req.Index] {
			result.Skipped++
			result.Results = append(result.Results, &RequestResult{
				Name: req.Name, Index: req.Index, Skipped: true, SkipReason: "filtered out",
			})
			continue
		}

		reqResult := r.runOne(req)
		result.Results = append(result.Results, reqResult)
		if reqResult.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (r *Runner) runOne(req *parser.Request) *RequestResult {
	r.resolver.SetInPlace(req.InPlace)

	reqResult := &RequestResult{
		Name:   req.Name,
		Index:  req.Index,
		Method: req.Method,
		URL:    r.resolver.Resolve(req.URL),
	}

	resolvedHeaders := r.resolver.ResolveHeaders(req.Headers)
	headers := make([]httpc.Header, len(resolvedHeaders))
	for i, h := range resolvedHeaders {
		headers[i] = httpc.Header{Name: h.Name, Value: h.Value}
	}
	body := r.resolver.Resolve(req.Body)

	httpReq := &httpc.Request{
		Method:  req.Method,
		URL:     reqResult.URL,
		Headers: headers,
		Body:    body,
	}
	reqResult.RequestHeaders = headers
	reqResult.RequestBody = body

	start := time.Now()
	var resp *httpc.Response
	if r.config.DryRun {
		resp = httpc.DryRun(httpReq)
		reqResult.DryRun = true
	} else {
		var err error
		resp, err = r.client.Do(httpReq)
		if err != nil {
			reqResult.Err = &TransportError{RequestName: req.Name, Err: err}
			reqResult.Duration = time.Since(start)
			reqResult.Passed = false
			return reqResult
		}
	}
	reqResult.Duration = time.Since(start)
	reqResult.Response = resp

	if req.Handler != "" && !resp.NotExecuted {
		hres := handler.Run(req.Handler, resp, r.resolver.GetGlobal)
		reqResult.Tests = hres.Tests
		reqResult.Logs = hres.Logs
		for _, t := range hres.Tests {
			if !t.Passed {
				reqResult.Failures = append(reqResult.Failures, &TestFailure{
					RequestName: req.Name, TestName: t.Name, Message: t.Message,
				})
			}
		}
		if hres.Err != nil {
			reqResult.Err = &HandlerError{RequestName: req.Name, Err: hres.Err}
		} else {
			for name, value := range hres.GlobalsDelta {
				r.globals.Set(name, value)
			}
		}
	}

	reqResult.Passed = requestPassed(reqResult)
	return reqResult
}

func requestPassed(r *RequestResult) bool {
	if r.Err != nil {
		return false
	}
	if len(r.Tests) > 0 {
		for _, t := range r.Tests {
			if !t.Passed {
				return false
			}
		}
		return true
	}
	if r.DryRun {
		return true
	}
	return r.Response != nil && r.Response.IsSuccess()
}
