package models

import "time"

type User struct {
	ID          int64     `json:"id" example:"42"`
	Username    string    `json:"username" example:"ada"`
	Email       string    `json:"email" example:"ada@example.com"`
	TotalPoints int       `json:"total_points" example:"180"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

type AuthResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}
