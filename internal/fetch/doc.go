// Package fetch downloads source videos from allow-listed hosts into scratch
// files that callers remove with Download.Cleanup.
package fetch
