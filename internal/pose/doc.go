// Package pose defines the skeleton types produced by pose trackers, the
// Tracker contract, and joint angle estimation.
//
// Keypoints follow the COCO 17-landmark layout (12 right hip, 14 right knee,
// 16 right ankle). Backends live in subpackages: onnx runs a YOLO pose model
// (decoded by yolo) and replay serves precomputed keypoints.
package pose
