package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"challenge-server/internal/apperr"
	"challenge-server/internal/auth"
	"challenge-server/internal/database"
	"challenge-server/internal/mail"
	"challenge-server/internal/models"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"go.uber.org/zap"
)

const refreshTokenLength = 40

var errInvalidRefreshToken = errors.New("invalid or expired refresh token")

// UserRepository is the slice of the datastore the account flows need.
type UserRepository interface {
	CreateUser(ctx context.Context, arg database.CreateUserParams) (*database.User, error)
	GetUserByUsername(ctx context.Context, username string) (*database.User, error)
	GetUserByEmail(ctx context.Context, email string) (*database.User, error)
	GetUserByID(ctx context.Context, id int64) (*database.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, newPasswordHash string) (bool, error)
	CreateSession(ctx context.Context, arg database.CreateSessionParams) error
	DeleteSessionByRefreshToken(ctx context.Context, refreshToken string) error
	DeleteAllSessionsForUser(ctx context.Context, userID int64) error
	LogEvent(ctx context.Context, userID int64, eventType string, payload interface{}) error
	ExecTx(ctx context.Context, fn func(*database.Queries) error) error
}

type ResetTokenStore interface {
	Issue(ctx context.Context, userID int64) (string, error)
	Consume(ctx context.Context, token string) (int64, bool, error)
}

type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ClientMeta identifies the device a session is created for.
type ClientMeta struct {
	UserAgent string
	ClientIP  string
}

type AuthResult struct {
	User         *database.User
	AccessToken  string
	RefreshToken string
}

type Service struct {
	users    UserRepository
	resets   ResetTokenStore
	mailer   mail.Mailer
	tokens   TokenConfig
	appHost  string
	logger   *zap.Logger
	newToken func() string
}

func NewService(users UserRepository, resets ResetTokenStore, mailer mail.Mailer, tokens TokenConfig, appHost string, logger *zap.Logger) (*Service, error) {
	generateID, err := nanoid.Standard(refreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("init refresh token generator: %w", err)
	}
	return &Service{
		users:    users,
		resets:   resets,
		mailer:   mailer,
		tokens:   tokens,
		appHost:  appHost,
		logger:   logger,
		newToken: generateID,
	}, nil
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// ValidateRegister returns the first rule the input breaks, or nil.
func ValidateRegister(in RegisterInput) error {
	if !strings.Contains(in.Email, "@") {
		return apperr.New(apperr.CodeInvalid, "email", "Invalid email")
	}
	if utf8.RuneCountInString(in.Username) <= 2 {
		return apperr.New(apperr.CodeInvalid, "username", "Username length must be greater than 2")
	}
	// "@" marks an email at login, so usernames cannot carry it
	if strings.Contains(in.Username, "@") {
		return apperr.New(apperr.CodeInvalid, "username", "Invalid symbol '@' in username")
	}
	if utf8.RuneCountInString(in.Password) <= 3 {
		return apperr.New(apperr.CodeInvalid, "password", "Password length must be greater than 3")
	}
	return nil
}

func (s *Service) Register(ctx context.Context, in RegisterInput, meta ClientMeta) (*AuthResult, error) {
	if err := ValidateRegister(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, database.CreateUserParams{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if constraint, ok := database.UniqueViolation(err); ok {
			switch constraint {
			case database.ConstraintUsername:
				return nil, apperr.Wrap(err, apperr.CodeConflict, "username", "Username already taken")
			case database.ConstraintEmail:
				return nil, apperr.Wrap(err, apperr.CodeConflict, "email", "An account with this email already exists")
			}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if msg, err := mail.Welcome(user.Email, user.Username); err == nil {
		s.send(ctx, msg)
	}

	return s.startSession(ctx, user, meta)
}

type LoginInput struct {
	UsernameOrEmail string
	Password        string
}

func (s *Service) Login(ctx context.Context, in LoginInput, meta ClientMeta) (*AuthResult, error) {
	var (
		user *database.User
		err  error
	)
	if strings.Contains(in.UsernameOrEmail, "@") {
		user, err = s.users.GetUserByEmail(ctx, in.UsernameOrEmail)
	} else {
		user, err = s.users.GetUserByUsername(ctx, in.UsernameOrEmail)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.CodeInvalid, "usernameOrEmail", "Username doesn't exist")
	}
	if !auth.CheckPasswordHash(in.Password, user.PasswordHash) {
		return nil, apperr.New(apperr.CodeInvalid, "password", "Incorrect username or password")
	}

	return s.startSession(ctx, user, meta)
}

// Refresh rotates a refresh token: the presented session is deleted and a new
// one is created in the same transaction.
func (s *Service) Refresh(ctx context.Context, refreshToken string, meta ClientMeta) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, apperr.New(apperr.CodeInvalid, "refresh_token", "Refresh token is required")
	}

	var result *AuthResult
	err := s.users.ExecTx(ctx, func(q *database.Queries) error {
		user, err := q.GetUserByRefreshToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if user == nil {
			return errInvalidRefreshToken
		}

		if err := q.DeleteSessionByRefreshToken(ctx, refreshToken); err != nil {
			return err
		}

		result, err = s.issue(ctx, q, user, meta)
		return err
	})
	if err != nil {
		if errors.Is(err, errInvalidRefreshToken) {
			return nil, apperr.Wrap(err, apperr.CodeUnauthorized, "refresh_token", "Invalid or expired refresh token")
		}
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	return result, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apperr.New(apperr.CodeInvalid, "refresh_token", "Refresh token is required")
	}
	return s.users.DeleteSessionByRefreshToken(ctx, refreshToken)
}

func (s *Service) Me(ctx context.Context, userID int64) (*database.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return apperr.New(apperr.CodeInvalid, "email", "Invalid email please try again")
	}

	token, err := s.resets.Issue(ctx, user.ID)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUnavailable, "email", "Could not start password reset, please try again later")
	}

	msg, err := mail.PasswordReset(user.Email, user.Username, s.appHost, token)
	if err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	s.send(ctx, msg)
	return nil
}

type ChangePasswordInput struct {
	Token       string
	NewPassword string
}

// ChangePassword consumes a reset token, sets the new password, revokes the
// user's other sessions and logs the user in.
func (s *Service) ChangePassword(ctx context.Context, in ChangePasswordInput, meta ClientMeta) (*AuthResult, error) {
	if utf8.RuneCountInString(in.NewPassword) <= 3 {
		return nil, apperr.New(apperr.CodeInvalid, "new_password", "Password length must be greater than 3")
	}

	userID, ok, err := s.resets.Consume(ctx, in.Token)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeUnavailable, "token", "Could not verify token, please try again later")
	}
	if !ok {
		return nil, apperr.New(apperr.CodeInvalid, "token", "Token expired")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	updated, err := s.users.UpdateUserPassword(ctx, userID, hash)
	if err != nil {
		return nil, fmt.Errorf("update password: %w", err)
	}
	if !updated {
		return nil, apperr.New(apperr.CodeInvalid, "token", "User no longer exists")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return nil, apperr.New(apperr.CodeInvalid, "token", "User no longer exists")
	}

	if err := s.users.DeleteAllSessionsForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", zap.Int64("user_id", userID), zap.Error(err))
	}
	if err := s.users.LogEvent(ctx, userID, database.EventPasswordChanged, map[string]any{}); err != nil {
		s.logger.Warn("failed to journal password change", zap.Int64("user_id", userID), zap.Error(err))
	}

	if msg, err := mail.PasswordChanged(user.Email, user.Username); err == nil {
		s.send(ctx, msg)
	}

	return s.startSession(ctx, user, meta)
}

type sessionCreator interface {
	CreateSession(ctx context.Context, arg database.CreateSessionParams) error
}

func (s *Service) startSession(ctx context.Context, user *database.User, meta ClientMeta) (*AuthResult, error) {
	result, err := s.issue(ctx, s.users, user, meta)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return result, nil
}

func (s *Service) issue(ctx context.Context, sessions sessionCreator, user *database.User, meta ClientMeta) (*AuthResult, error) {
	accessToken, err := auth.GenerateJWT(&models.User{
		ID:       user.ID,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}, s.tokens.Secret, s.tokens.AccessTTL)
	if err != nil {
		return nil, err
	}

	refreshToken := s.newToken()
	err = sessions.CreateSession(ctx, database.CreateSessionParams{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: refreshToken,
		UserAgent:    meta.UserAgent,
		ClientIP:     meta.ClientIP,
		ExpiresAt:    time.Now().Add(s.tokens.RefreshTTL),
	})
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// send delivers mail synchronously; a failed delivery never fails the
// account operation that triggered it.
func (s *Service) send(ctx context.Context, msg *mail.Message) {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("failed to send email",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err),
		)
	}
}
