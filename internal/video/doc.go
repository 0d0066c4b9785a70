// Package video decodes video files with OpenCV (gocv) and exposes each
// decoded picture as a frame.Frame.
package video
