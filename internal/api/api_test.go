package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"challenge-server/internal/auth"
	"challenge-server/internal/database"
	"challenge-server/internal/ledger"
	"challenge-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func randomSuffix() string {
	return uuid.NewString()[:8]
}

type testUser struct {
	ID    int64
	Name  string
	Token string
}

func createTestUser(t *testing.T, admin bool) testUser {
	t.Helper()
	ctx := context.Background()

	hash, err := auth.HashPassword("password")
	require.NoError(t, err)

	name := "api_" + randomSuffix()
	user, err := testStore.CreateUser(ctx, database.CreateUserParams{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: hash,
	})
	require.NoError(t, err)

	if admin {
		require.NoError(t, testStore.SetUserAdmin(ctx, user.ID, true))
	}

	token, err := auth.GenerateJWT(&models.User{ID: user.ID, Username: name, IsAdmin: admin}, testSecret, time.Hour)
	require.NoError(t, err)

	return testUser{ID: user.ID, Name: name, Token: token}
}

func doRequest(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	testHandler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func requireError(t *testing.T, rr *httptest.ResponseRecorder, status int, field, message string) {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	resp := decode[models.ErrorResponse](t, rr)
	require.Len(t, resp.Errors, 1)
	require.Equal(t, field, resp.Errors[0].Field)
	require.Equal(t, message, resp.Errors[0].Message)
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	name := "reg_" + randomSuffix()
	payload := RegisterRequest{Username: name, Email: name + "@example.com", Password: "hunter22"}

	rr := doRequest(t, http.MethodPost, "/api/v1/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[models.AuthResponse](t, rr)
	require.Equal(t, name, created.User.Username)
	require.NotEmpty(t, created.AccessToken)

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Username: name, Email: "other_" + payload.Email, Password: "hunter22"})
	requireError(t, rr, http.StatusConflict, "username", "Username already taken")

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Username: "other_" + name, Email: payload.Email, Password: "hunter22"})
	requireError(t, rr, http.StatusConflict, "email", "An account with this email already exists")

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Username: "ok_" + name, Email: "nope", Password: "hunter22"})
	requireError(t, rr, http.StatusBadRequest, "email", "Invalid email")

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{UsernameOrEmail: payload.Email, Password: payload.Password})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{UsernameOrEmail: "ghost_" + name, Password: "x"})
	requireError(t, rr, http.StatusBadRequest, "usernameOrEmail", "Username doesn't exist")

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{UsernameOrEmail: name, Password: "wrong"})
	requireError(t, rr, http.StatusBadRequest, "password", "Incorrect username or password")

	rr = doRequest(t, http.MethodGet, "/api/v1/me", created.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[models.User](t, rr)
	require.Equal(t, created.User.ID, me.ID)

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/refresh", "", RefreshTokenRequest{RefreshToken: created.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	refreshed := decode[models.AuthResponse](t, rr)

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/logout", created.AccessToken, RefreshTokenRequest{RefreshToken: refreshed.RefreshToken})
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestAPI_PasswordReset(t *testing.T) {
	user := createTestUser(t, false)

	rr := doRequest(t, http.MethodPost, "/api/v1/auth/forgot-password", "", ForgotPasswordRequest{Email: "missing_" + user.Name + "@example.com"})
	requireError(t, rr, http.StatusBadRequest, "email", "Invalid email please try again")

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/forgot-password", "", ForgotPasswordRequest{Email: user.Name + "@example.com"})
	require.Equal(t, http.StatusOK, rr.Code)
	sent := decode[models.SuccessResponse](t, rr)
	require.Equal(t, "Email sent! Please check your inbox", sent.Success[0].Message)

	var token string
	testResets.mu.Lock()
	for k, id := range testResets.tokens {
		if id == user.ID {
			token = k
		}
	}
	testResets.mu.Unlock()
	require.NotEmpty(t, token)

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/change-password", "", ChangePasswordRequest{Token: token, NewPassword: "brand-new"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/change-password", "", ChangePasswordRequest{Token: token, NewPassword: "brand-new"})
	requireError(t, rr, http.StatusBadRequest, "token", "Token expired")
}

func TestAPI_MeAnonymous(t *testing.T) {
	rr := doRequest(t, http.MethodGet, "/api/v1/me", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, "null", rr.Body.String())

	rr = doRequest(t, http.MethodGet, "/api/v1/me", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_ExpiredTokenOnPublicRoutes(t *testing.T) {
	name := "stale_" + randomSuffix()
	rr := doRequest(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Username: name, Email: name + "@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[models.AuthResponse](t, rr)

	expired, err := auth.GenerateJWT(&models.User{ID: created.User.ID, Username: name}, testSecret, -time.Minute)
	require.NoError(t, err)

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/refresh", expired, RefreshTokenRequest{RefreshToken: created.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	refreshed := decode[models.AuthResponse](t, rr)
	require.NotEqual(t, created.RefreshToken, refreshed.RefreshToken)

	rr = doRequest(t, http.MethodPost, "/api/v1/auth/login", expired, LoginRequest{UsernameOrEmail: name, Password: "hunter22"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doRequest(t, http.MethodGet, "/api/v1/leaderboard", expired, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, http.MethodGet, "/api/v1/me", expired, nil)
	requireError(t, rr, http.StatusUnauthorized, "auth", "Invalid or expired token")

	rr = doRequest(t, http.MethodGet, "/api/v1/submissions", expired, nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAPI_ProtectedRoutesRequireLogin(t *testing.T) {
	rr := doRequest(t, http.MethodPost, "/api/v1/submissions", "", RecordSubmissionRequest{Question: "q1", FileKey: "k"})
	requireError(t, rr, http.StatusUnauthorized, "auth", auth.MsgLoginRequired)

	user := createTestUser(t, false)
	rr = doRequest(t, http.MethodPost, "/api/v1/admin/points", user.Token, UpdatePointsRequest{})
	requireError(t, rr, http.StatusForbidden, "auth", auth.MsgNotPermitted)
}

func TestAPI_SubmissionLifecycle(t *testing.T) {
	user := createTestUser(t, false)

	rr := doRequest(t, http.MethodPost, "/api/v1/files/upload-url", user.Token, UploadURLRequest{FileName: "my file.py", Path: "/"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	upload := decode[models.SignedURL](t, rr)
	require.Regexp(t, `^misc/[0-9a-f-]{36}-myfile\.py$`, upload.FileKey)
	require.Contains(t, upload.SignedURL, "X-Amz-Signature")

	rr = doRequest(t, http.MethodGet, "/api/v1/submissions/existing?question=q1", user.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, decode[models.ExistingSubmission](t, rr).Existing)

	rr = doRequest(t, http.MethodPost, "/api/v1/submissions", user.Token, RecordSubmissionRequest{Question: "q1", FileKey: upload.FileKey})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	created := decode[models.Submission](t, rr)
	require.Equal(t, 0, created.Updates)
	require.Equal(t, user.ID, created.CreatorID)

	for i := 1; i <= 3; i++ {
		rr = doRequest(t, http.MethodGet, "/api/v1/submissions/existing?question=q1", user.Token, nil)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		existing := decode[models.ExistingSubmission](t, rr)
		require.True(t, existing.Existing)

		updates := existing.Submission.Updates
		rr = doRequest(t, http.MethodPost, "/api/v1/submissions", user.Token, RecordSubmissionRequest{
			Existing:  true,
			ID:        existing.Submission.ID,
			CreatorID: existing.Submission.CreatorID,
			Question:  "q1",
			FileKey:   "misc/v" + string(rune('0'+i)),
			Updates:   &updates,
		})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		require.Equal(t, i, decode[models.Submission](t, rr).Updates)
	}

	rr = doRequest(t, http.MethodGet, "/api/v1/submissions/existing?question=q1", user.Token, nil)
	requireError(t, rr, http.StatusBadRequest, "Max Submissions", "You have exceeded the max number of submissions.")

	rr = doRequest(t, http.MethodPost, "/api/v1/submissions", user.Token, RecordSubmissionRequest{Question: "q1", FileKey: "misc/v4"})
	requireError(t, rr, http.StatusBadRequest, "Max Submissions", "You have exceeded the max number of submissions.")

	rr = doRequest(t, http.MethodGet, "/api/v1/submissions", user.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	list := decode[[]models.Submission](t, rr)
	require.Len(t, list, 1)
	require.Equal(t, 3, list[0].Updates)
	require.Equal(t, "misc/v3", list[0].FileKey)

	rr = doRequest(t, http.MethodGet, "/api/v1/events", user.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, decode[[]models.Event](t, rr), 4)
}

func TestAPI_UpdateByAnotherUserIsForbidden(t *testing.T) {
	owner := createTestUser(t, false)
	intruder := createTestUser(t, false)

	rr := doRequest(t, http.MethodPost, "/api/v1/submissions", owner.Token, RecordSubmissionRequest{Question: "q1", FileKey: "misc/own"})
	require.Equal(t, http.StatusOK, rr.Code)
	created := decode[models.Submission](t, rr)

	zero := 0
	rr = doRequest(t, http.MethodPost, "/api/v1/submissions", intruder.Token, RecordSubmissionRequest{
		Existing: true, ID: created.ID, CreatorID: owner.ID, Question: "q1", FileKey: "misc/evil", Updates: &zero,
	})
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAPI_ViewURL(t *testing.T) {
	user := createTestUser(t, false)
	other := createTestUser(t, false)
	admin := createTestUser(t, true)

	fileKey := "week1/" + randomSuffix() + "-a.py"
	rr := doRequest(t, http.MethodPost, "/api/v1/submissions", user.Token, RecordSubmissionRequest{Question: "q7", FileKey: fileKey})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doRequest(t, http.MethodPost, "/api/v1/files/view-url", user.Token, ViewURLRequest{Question: "q7"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Equal(t, fileKey, decode[models.SignedURL](t, rr).FileKey)

	rr = doRequest(t, http.MethodPost, "/api/v1/files/view-url", user.Token, ViewURLRequest{Question: "q8"})
	requireError(t, rr, http.StatusNotFound, "signedUrl", "Error: could not find file for this submission")

	rr = doRequest(t, http.MethodPost, "/api/v1/files/view-url", other.Token, ViewURLRequest{FileKey: fileKey})
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doRequest(t, http.MethodPost, "/api/v1/files/view-url", admin.Token, ViewURLRequest{FileKey: fileKey})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}

func TestAPI_DeleteFile(t *testing.T) {
	user := createTestUser(t, false)
	other := createTestUser(t, false)

	oldKey := "misc/" + randomSuffix() + "-old.py"
	rr := doRequest(t, http.MethodPost, "/api/v1/submissions", user.Token, RecordSubmissionRequest{Question: "q1", FileKey: oldKey})
	require.Equal(t, http.StatusOK, rr.Code)
	created := decode[models.Submission](t, rr)

	liveKey := "misc/" + randomSuffix() + "-new.py"
	rr = doRequest(t, http.MethodPost, "/api/v1/submissions", user.Token, RecordSubmissionRequest{
		Existing: true, ID: created.ID, CreatorID: user.ID, Question: "q1", FileKey: liveKey, Updates: &created.Updates,
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = doRequest(t, http.MethodDelete, "/api/v1/files?key="+liveKey, user.Token, nil)
	requireError(t, rr, http.StatusForbidden, "Delete File", auth.MsgNotPermitted)

	rr = doRequest(t, http.MethodDelete, "/api/v1/files?key="+liveKey, other.Token, nil)
	require.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(t, http.MethodDelete, "/api/v1/files?key="+oldKey, user.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	ok := decode[models.SuccessResponse](t, rr)
	require.Equal(t, models.FieldError{Field: "Delete File", Message: "Successfully deleted previous file."}, ok.Success[0])

	testDeleter.failWith(errors.New("access denied"))
	defer testDeleter.failWith(nil)

	rr = doRequest(t, http.MethodDelete, "/api/v1/files?key="+oldKey, user.Token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	failed := decode[models.ErrorResponse](t, rr)
	require.Equal(t, models.FieldError{Field: "Delete File", Message: "Delete failed."}, failed.Errors[0])
}

func TestAPI_PointsAndLeaderboard(t *testing.T) {
	admin := createTestUser(t, true)
	alice := createTestUser(t, false)
	bob := createTestUser(t, false)
	tag := randomSuffix()

	for _, u := range []testUser{alice, bob} {
		rr := doRequest(t, http.MethodPost, "/api/v1/submissions", u.Token, RecordSubmissionRequest{
			Question: "q1", FileKey: "week1/" + tag + "-" + u.Name + ".py",
		})
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr := doRequest(t, http.MethodPost, "/api/v1/admin/points", admin.Token, UpdatePointsRequest{
		Rows: []ledger.PointsRow{{FileKey: tag, Points: 5000}},
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.JSONEq(t, `{"field":"Update Scores Success","message":"Successfully updated user scores"}`, rr.Body.String())

	rr = doRequest(t, http.MethodPost, "/api/v1/admin/points", admin.Token, UpdatePointsRequest{
		Rows: []ledger.PointsRow{{FileKey: "no-such-" + tag, Points: 1}},
	})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.JSONEq(t, `{"field":"Update Scores Fail","message":"Failed to update scores: No rows updated"}`, rr.Body.String())

	rr = doRequest(t, http.MethodGet, "/api/v1/leaderboard?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	rows := decode[[]models.LeaderboardRow](t, rr)
	require.Len(t, rows, 2)
	require.Equal(t, 5000, rows[0].Points)
	require.Equal(t, 1, rows[0].Rank)
	require.Equal(t, 1, rows[1].Rank, "tied users share a rank")

	rr = doRequest(t, http.MethodGet, "/api/v1/leaderboard?limit=abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPI_Sessions(t *testing.T) {
	name := "sess_" + randomSuffix()
	rr := doRequest(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{Username: name, Email: name + "@example.com", Password: "hunter22"})
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[models.AuthResponse](t, rr)

	rr = doRequest(t, http.MethodGet, "/api/v1/sessions", created.AccessToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	sessions := decode[[]models.Session](t, rr)
	require.Len(t, sessions, 1)

	rr = doRequest(t, http.MethodDelete, "/api/v1/sessions/not-a-uuid", created.AccessToken, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, http.MethodDelete, "/api/v1/sessions/"+sessions[0].ID.String(), created.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doRequest(t, http.MethodPost, "/api/v1/sessions/terminate_all", created.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
}

func TestAPI_Health(t *testing.T) {
	rr := doRequest(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decode[HealthResponse](t, rr)
	require.Equal(t, "up", resp.Checks["postgres"])
}

func TestRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(1, 2)
	h := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	req.RemoteAddr = "203.0.113.10:5555"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
}
