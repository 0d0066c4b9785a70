// Package onnx runs a YOLO pose model through ONNX Runtime on OpenCV frames.
//
// One Model is loaded per process; each scan gets its own Tracker so person
// identities never leak between concurrent analyses.
package onnx
