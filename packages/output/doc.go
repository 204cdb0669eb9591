// Package output renders a runner.RunResult for a human reading a
// terminal: one line per request with its pass/fail symbol, test
// outcomes indented beneath (handler logs too, in verbose mode), and a
// trailing summary line.
package output
