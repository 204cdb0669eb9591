// Package cmd implements the httprun CLI commands using Cobra.
//
// Available commands:
//   - run: Execute the requests in a .http file
//   - version: Show httprun version information
package cmd
