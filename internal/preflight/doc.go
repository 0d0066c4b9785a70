// Package preflight provides readiness checks for the directories, model
// files and external services that formcheck depends on.
//
// These checks run in two contexts:
//   - The HTTP server reports RunAll through GET /health.
//   - The CLI "formcheck status" command adds a live OpenAI probe on top.
//
// Checks for the pose backend follow the configured backend; replay mode
// never looks for the ONNX model.
package preflight
