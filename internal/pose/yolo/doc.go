// Package yolo decodes YOLO pose model output and keeps person identities
// stable across frames. It has no inference runtime dependency; see package
// onnx for the model runner.
package yolo
