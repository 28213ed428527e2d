// Package server implements the HTTP server using Echo framework.
//
// Routes: merge (multipart upload + pipeline), health (live/ready), metrics,
// version, job history. Handlers split by concern: handlers_merge.go,
// handlers_health.go, handlers_jobs.go.
package server
