package api

import "taskticker-api/domain"

const maxRequestBodySize = 64 * 1024 // 64 KiB

type tasksResponse struct {
	Tasks []domain.Task `json:"tasks"`
}

type taskCreatedResponse struct {
	ID string `json:"id"`
}

type validationResponse struct {
	Errors domain.FieldErrors `json:"errors"`
}

type authResponse struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	IDToken     string `json:"idToken"`
}

type registerRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type completionRequest struct {
	Completed *bool `json:"completed"`
}
