// Package frame defines the Frame abstraction the scanning pipeline annotates
// and encodes. The OpenCV implementation lives in package video.
package frame
