package models

import "github.com/benmeehan/route-agent/internal/deviation"

// RouteRequest sets or removes the planned route of a watcher.
type RouteRequest struct {
	RequestID string `json:"request_id"`
	WatcherID string `json:"watcher_id,omitempty"`
	Remove    bool   `json:"remove,omitempty"`
	deviation.RouteConfiguration
}

// RouteResponse acknowledges a RouteRequest.
type RouteResponse struct {
	RequestID string `json:"request_id"`
	WatcherID string `json:"watcher_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}
