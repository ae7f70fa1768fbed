// Package server exposes the orchestration pipeline over HTTP: a health
// probe, the main processing endpoint and read/delete access to stored
// conversations. The handlers are a thin translation layer; everything with
// decision logic lives below the Pipeline interface.
package server
