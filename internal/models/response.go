package models

// FieldError is the {field, message} pair every operation reports with.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

type SuccessResponse struct {
	Success []FieldError `json:"success"`
}
