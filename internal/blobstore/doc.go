// Package blobstore keeps analysis images and narration audio on local disk
// and hands out the URLs the HTTP API serves them from.
//
// Names follow <prefix>_<unix seconds>_<8 hex><ext>. CleanStale enforces the
// retention window.
package blobstore
