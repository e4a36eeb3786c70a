package dto

// HealthResponse represents the response structure for health checks
type HealthResponse struct {
	Status  string         `json:"status" example:"ready"`
	Details map[string]any `json:"details,omitempty"`
}
