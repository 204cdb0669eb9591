// Package env loads environment profiles and resolves {{variable}}
// references against them.
//
// It provides:
//   - Reading http-client.env.json / http-client.private.env.json profile pairs
//   - Four-tier variable resolution: in-place, global, environment, dynamic
//   - The closed set of dynamic variables: $uuid, $timestamp, $randomInt
package env
