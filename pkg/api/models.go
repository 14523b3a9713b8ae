package api

import "time"

// RouteRequest is the JSON body for POST /api/v1/route. Pairs are [lon, lat].
type RouteRequest struct {
	Source      []float64 `json:"source"`
	Destination []float64 `json:"destination"`
}

// RouteResponse is the JSON response for a successful route query.
type RouteResponse struct {
	Source            [2]float64 `json:"source"`
	Destination       [2]float64 `json:"destination"`
	TravelTimeMinutes float64    `json:"travel_time_minutes"`
	TotalDistanceKm   float64    `json:"total_distance_km"`
	TravelTime        string     `json:"travel_time"`    // minutes, 2 decimals
	TotalDistance     string     `json:"total_distance"` // km, 2 decimals
	ImageURL          string     `json:"image_url"`
}

// ErrorResponse is the JSON response for errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// StatsResponse is the JSON response for GET /api/v1/stats.
type StatsResponse struct {
	NumNodes uint32    `json:"num_nodes"`
	NumEdges uint32    `json:"num_edges"`
	LoadedAt time.Time `json:"loaded_at"`
}

// HealthResponse is the JSON response for GET /api/v1/health.
type HealthResponse struct {
	Status string `json:"status"`
}
