// Package server implements the upload spool service: the background HTTP
// endpoint a dashboard embeds to let users drop data files for preview. It
// wires together the HTTP routes, the shared spool directory, the retention
// sweeper, and provides the lifecycle helpers used by tests and the
// production binary.
package server
