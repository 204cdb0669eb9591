// Package http executes fully-resolved requests over net/http and
// shapes the result into a Response carrying a tagged-union JSON
// parse attempt alongside the raw bytes.
package http
