package models

// CalculateRequest for POST /api/v1/calculate
type CalculateRequest struct {
	Message string `json:"message"`
}
