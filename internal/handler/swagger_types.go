package handler

// Swagger type definitions for API documentation.
// These types are used by swag to generate OpenAPI documentation.

// --- Request Types ---

// TokenRequest represents the token issuance request body.
type TokenRequest struct {
	Subject    string `json:"subject" binding:"required" example:"ingest-pipeline"`
	TTLSeconds int64  `json:"ttl_seconds" example:"3600"`
}

// --- Response Types ---

// TokenResponse represents an issued access token.
type TokenResponse struct {
	AccessToken string `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType   string `json:"token_type" example:"Bearer"`
	ExpiresIn   int64  `json:"expires_in" example:"3600"`
}

// ServiceInfo represents the root info response.
type ServiceInfo struct {
	App         string `json:"app" example:"Document Processing API"`
	Environment string `json:"environment" example:"development"`
	Debug       bool   `json:"debug" example:"true"`
	Version     string `json:"version" example:"1.0.0"`
	Status      string `json:"status" example:"running"`
	RequestID   string `json:"request_id" example:"9b2f6c1e-3d4a-4b5c-8d7e-0f1a2b3c4d5e"`
}

// HealthStatus represents the health check response.
type HealthStatus struct {
	Status          string `json:"status" example:"healthy"`
	Timestamp       string `json:"timestamp" example:"2026-01-02T15:04:05Z"`
	ConverterStatus string `json:"converter_status" example:"healthy"`
	Environment     string `json:"environment" example:"development"`
	RequestID       string `json:"request_id" example:"9b2f6c1e-3d4a-4b5c-8d7e-0f1a2b3c4d5e"`
}
