// Package tracks keeps per-person angle state for the duration of one scan.
package tracks
