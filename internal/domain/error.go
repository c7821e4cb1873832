package domain

// ErrorResponse é a estrutura padronizada para respostas de erro na API.
// @Description Estrutura padronizada para respostas de erro na API.
type ErrorResponse struct {
	Code       int         `json:"code" example:"422"`
	Category   string      `json:"category" example:"FORM_VALIDATION_ERROR"`
	Message    string      `json:"message" example:"O formulário possui 2 problema(s)."`
	Violations []Violation `json:"violations,omitempty"`
}
