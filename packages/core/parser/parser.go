package parser

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// state names mirror the four stages a request block moves through as
// the scanner consumes it line by line.
type state int

const (
	stateAwaitingRequest state = iota
	stateReadingHeaders
	stateReadingBody
	stateReadingHandler
)

var (
	inPlaceLineRe = regexp.MustCompile(`^@([A-Za-z_][A-Za-z0-9_.-]*)\s*=\s*(.*)$`)
	methodLineRe  = regexp.MustCompile(`(?i)^(GET|POST|PUT|PATCH|DELETE|HEAD|OPTIONS|TRACE|CONNECT)\s+(\S+)(?:\s+HTTP/\d\.\d)?\s*$`)
	handlerOpenRe = regexp.MustCompile(`^>\s*\{%\s*$`)
)

// Parse reads a dot-http request file from content and returns the
// requests it defines, in file order, with Index starting at 1.
func Parse(content string) ([]*Request, error) {
	p := &parseState{state: stateAwaitingRequest, nextIndex: 1}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if err := p.processLine(line, scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if p.state == stateReadingHandler {
		return nil, &ParseError{Line: line, Message: "unterminated handler block"}
	}
	p.finalizeCurrent()

	return p.requests, nil
}

// ParseFile reads path and parses its contents.
func ParseFile(path string) ([]*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

type parseState struct {
	requests  []*Request
	current   *Request
	pending   []InPlaceBinding
	state     state
	bodyLines []string
	handler   []string
	nextIndex int
}

func (p *parseState) processLine(lineNo int, line string) error {
	trimmed := strings.TrimSpace(line)

	switch p.state {
	case stateAwaitingRequest:
		return p.processAwaitingRequest(lineNo, line, trimmed)
	case stateReadingHeaders:
		return p.processReadingHeaders(lineNo, line, trimmed)
	case stateReadingBody:
		return p.processReadingBody(lineNo, line, trimmed)
	case stateReadingHandler:
		return p.processReadingHandler(line, trimmed)
	}
	return nil
}

func (p *parseState) processAwaitingRequest(lineNo int, line, trimmed string) error {
	switch {
	case trimmed == "":
		return nil
	case strings.HasPrefix(trimmed, "###"):
		p.finalizeCurrent()
		p.startRequest(strings.TrimSpace(trimmed[3:]), lineNo)
		return nil
	case strings.HasPrefix(trimmed, "//"):
		return nil
	case strings.HasPrefix(trimmed, "#"):
		return nil
	}

	if m := inPlaceLineRe.FindStringSubmatch(trimmed); m != nil {
		binding := InPlaceBinding{Name: m[1], Value: m[2]}
		if p.current != nil && p.current.Method == "" {
			p.current.InPlace = append(p.current.InPlace, binding)
		} else {
			p.pending = append(p.pending, binding)
		}
		return nil
	}

	if m := methodLineRe.FindStringSubmatch(trimmed); m != nil {
		if p.current == nil {
			p.startRequest("", lineNo)
		}
		p.current.Method = strings.ToUpper(m[1])
		p.current.URL = m[2]
		p.state = stateReadingHeaders
		return nil
	}

	return &ParseError{Line: lineNo, Message: "expected a request separator, variable binding, or method line, got " + trimmed}
}

func (p *parseState) processReadingHeaders(lineNo int, line, trimmed string) error {
	switch {
	case trimmed == "":
		p.state = stateReadingBody
		p.bodyLines = nil
		return nil
	case handlerOpenRe.MatchString(trimmed):
		p.state = stateReadingHandler
		p.handler = nil
		return nil
	case strings.HasPrefix(trimmed, "###"):
		p.finalizeCurrent()
		p.startRequest(strings.TrimSpace(trimmed[3:]), lineNo)
		return nil
	}

	idx := strings.Index(trimmed, ":")
	if idx < 0 {
		return &ParseError{Line: lineNo, Message: "expected a header line of the form Name: value, got " + trimmed}
	}
	name := strings.TrimSpace(trimmed[:idx])
	value := strings.TrimSpace(trimmed[idx+1:])
	p.current.Headers = append(p.current.Headers, Header{Name: name, Value: value})
	return nil
}

func (p *parseState) processReadingBody(lineNo int, line, trimmed string) error {
	switch {
	case strings.HasPrefix(trimmed, "###"):
		p.finalizeCurrent()
		p.startRequest(strings.TrimSpace(trimmed[3:]), lineNo)
		return nil
	case handlerOpenRe.MatchString(trimmed):
		p.flushBody()
		p.state = stateReadingHandler
		p.handler = nil
		return nil
	}
	p.bodyLines = append(p.bodyLines, line)
	return nil
}

func (p *parseState) processReadingHandler(line, trimmed string) error {
	if idx := strings.Index(line, "%}"); idx >= 0 {
		if before := line[:idx]; strings.TrimSpace(before) != "" {
			p.handler = append(p.handler, before)
		}
		p.current.Handler = strings.Join(p.handler, "\n")
		p.state = stateAwaitingRequest
		return nil
	}
	p.handler = append(p.handler, line)
	return nil
}

func (p *parseState) startRequest(name string, lineNo int) {
	p.current = &Request{
		Name:    name,
		Index:   p.nextIndex,
		InPlace: p.pending,
		Line:    lineNo,
	}
	p.pending = nil
	p.nextIndex++
	p.state = stateAwaitingRequest
}

func (p *parseState) flushBody() {
	if p.current == nil {
		return
	}
	raw := strings.Join(p.bodyLines, "\n")
	raw = strings.TrimSuffix(raw, "\n")
	p.current.Body = raw
	p.bodyLines = nil
}

func (p *parseState) finalizeCurrent() {
	if p.current == nil {
		return
	}
	if p.state == stateReadingBody {
		p.flushBody()
	}
	p.requests = append(p.requests, p.current)
	p.current = nil
	p.state = stateAwaitingRequest
}
