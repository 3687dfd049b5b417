package models

// URLAnalysisRequest asks the service to fetch and analyze a remote image
type URLAnalysisRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned by the health endpoint
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
