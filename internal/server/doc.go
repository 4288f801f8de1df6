// Package server exposes the ops HTTP surface: liveness/readiness, Prometheus
// metrics, build info, and the WebSocket bridge onto the relay broadcaster.
package server
