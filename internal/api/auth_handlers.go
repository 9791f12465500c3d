package api

import (
	"net/http"

	"challenge-server/internal/accounts"
	"challenge-server/internal/models"
)

type RegisterRequest struct {
	Username string `json:"username" example:"ada"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password" example:"hunter22"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" example:"ada"`
	Password        string `json:"password" example:"hunter22"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"V1StGXR8_Z5jdHi6B-myT78q_Z5jdHi6B-myT78q"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" example:"ada@example.com"`
}

type ChangePasswordRequest struct {
	Token       string `json:"token" example:"0b6f0d8e-2f7c-4c55-9b53-2a1f5e0c1d11"`
	NewPassword string `json:"new_password" example:"correct-horse"`
}

func clientMeta(r *http.Request) accounts.ClientMeta {
	return accounts.ClientMeta{UserAgent: r.UserAgent(), ClientIP: clientIP(r)}
}

func authResponse(res *accounts.AuthResult) models.AuthResponse {
	return models.AuthResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		User:         toUser(res.User),
	}
}

// @Summary      Register a new account
// @Description  Creates an account, sends a welcome email and logs the new user in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        registerRequest  body      RegisterRequest  true  "Account details"
// @Success      201              {object}  models.AuthResponse
// @Failure      400              {object}  models.ErrorResponse "Validation error"
// @Failure      409              {object}  models.ErrorResponse "Username or email taken"
// @Failure      429              {object}  models.ErrorResponse
// @Router       /auth/register [post]
func (s *Server) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.accounts.Register(r.Context(), accounts.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, clientMeta(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse(res))
}

// @Summary      Logs a user in
// @Description  Authenticates by username or email (a value containing "@" is treated as an email) and returns a short-lived access token and a long-lived refresh token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        loginRequest  body      LoginRequest  true  "Login Credentials"
// @Success      200           {object}  models.AuthResponse
// @Failure      400           {object}  models.ErrorResponse "Unknown user or wrong password"
// @Failure      429           {object}  models.ErrorResponse
// @Router       /auth/login [post]
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.accounts.Login(r.Context(), accounts.LoginInput{
		UsernameOrEmail: req.UsernameOrEmail,
		Password:        req.Password,
	}, clientMeta(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse(res))
}

// @Summary      Refresh access token
// @Description  Provides a new short-lived access token and a new refresh token in exchange for a valid, non-expired refresh token. Implements refresh token rotation.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        refreshTokenRequest  body      RefreshTokenRequest  true  "Refresh Token"
// @Success      200                  {object}  models.AuthResponse
// @Failure      400                  {object}  models.ErrorResponse "Missing token"
// @Failure      401                  {object}  models.ErrorResponse "Invalid or expired refresh token"
// @Router       /auth/refresh [post]
func (s *Server) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.accounts.Refresh(r.Context(), req.RefreshToken, clientMeta(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse(res))
}

// @Summary      Log out
// @Description  Deletes the session behind the given refresh token.
// @Tags         auth
// @Accept       json
// @Security     BearerAuth
// @Param        refreshTokenRequest  body  RefreshTokenRequest  true  "Refresh Token"
// @Success      204  {null}    nil "No Content"
// @Failure      401  {object}  models.ErrorResponse
// @Router       /auth/logout [post]
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.accounts.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// @Summary      Request a password reset
// @Description  Emails a one-time reset link valid for three days.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        forgotPasswordRequest  body      ForgotPasswordRequest  true  "Account email"
// @Success      200                    {object}  models.SuccessResponse
// @Failure      400                    {object}  models.ErrorResponse "Unknown email"
// @Router       /auth/forgot-password [post]
func (s *Server) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.accounts.ForgotPassword(r.Context(), req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: []models.FieldError{
		{Field: "email", Message: "Email sent! Please check your inbox"},
	}})
}

// @Summary      Change password with a reset token
// @Description  Consumes the reset token, sets the new password, signs out other sessions and logs the user in.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        changePasswordRequest  body      ChangePasswordRequest  true  "Token and new password"
// @Success      200                    {object}  models.AuthResponse
// @Failure      400                    {object}  models.ErrorResponse "Weak password or expired token"
// @Router       /auth/change-password [post]
func (s *Server) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.accounts.ChangePassword(r.Context(), accounts.ChangePasswordInput{
		Token:       req.Token,
		NewPassword: req.NewPassword,
	}, clientMeta(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse(res))
}
