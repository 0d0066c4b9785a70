// Package api serves the formcheck HTTP surface: analysis requests, generated
// image and audio files, analysis history, and health.
//
// # Routes
//
//	GET  /                  usage document
//	GET  /analyze           ?video_url=...&frame_skip=n
//	POST /analyze           {"video_url": "...", "frame_skip": n}
//	GET  /image/{filename}  annotated frames (image/png)
//	GET  /audio/{filename}  spoken summaries (audio/mpeg)
//	GET  /analyses          recent analyses, ?limit=n
//	GET  /analyses/{id}     one analysis
//	GET  /health            preflight report
//
// # Errors
//
// Analysis failures are mapped to status codes by services.HTTPStatus and
// rendered as {"detail": "..."}. A GET without video_url and a POST with a
// malformed body carry extra help fields so callers can correct the request.
//
// Every response carries X-Request-ID and permissive CORS headers; OPTIONS
// preflight requests are answered with 204 before routing.
package api
