package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	ResetTokenPrefix = "forgot-password:"
	ResetTokenTTL    = 3 * 24 * time.Hour
)

// ResetTokens maps one-time password reset tokens to user ids.
type ResetTokens struct {
	client *redis.Client
	ttl    time.Duration
}

func NewResetTokens(client *redis.Client) *ResetTokens {
	return &ResetTokens{client: client, ttl: ResetTokenTTL}
}

func (r *ResetTokens) Issue(ctx context.Context, userID int64) (string, error) {
	token := uuid.NewString()
	if err := r.client.Set(ctx, ResetTokenPrefix+token, userID, r.ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

// Consume returns the user id bound to token and deletes the token in the
// same round trip. ok is false for unknown or expired tokens.
func (r *ResetTokens) Consume(ctx context.Context, token string) (int64, bool, error) {
	val, err := r.client.GetDel(ctx, ResetTokenPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}

	userID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	return userID, true, nil
}
