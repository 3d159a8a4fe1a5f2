// Package api exposes the dubbing workflow over HTTP.
//
// Routes are mounted on a go-chi router: uploads and job management under
// /api/videos, dubbing admission and status under /api/dubbing, plus an
// unauthenticated /api/health report. Errors are JSON objects of the form
// {"error": "..."}; their messages are part of the public contract.
package api
