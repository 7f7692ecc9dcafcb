package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/core"
	"github.com/Jaks-Tech/thexposiguide-app-sub000/internal/models"
)

type fakeUserDB struct {
	core.DbClient
	users map[string]*models.User // by email
}

func newFakeUserDB() *fakeUserDB {
	return &fakeUserDB{users: make(map[string]*models.User)}
}

func (f *fakeUserDB) CreateUser(ctx context.Context, user *models.User) error {
	if _, exists := f.users[user.Email]; exists {
		return assert.AnError
	}
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.users[email], nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, target, bytes.NewReader(buf)))
	return rec
}

func TestSignupCreatesUserAndReturnsToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newFakeUserDB()
	h := NewAuthHandler(db)

	rec := postJSON(t, h.Signup, "/api/signup", signupRequest{
		FirstName: "Ada", Email: "ada@example.com", Password: "hunter22",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])

	user := db.users["ada@example.com"]
	require.NotNil(t, user)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter22")))
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newFakeUserDB()
	h := NewAuthHandler(db)

	req := signupRequest{Email: "ada@example.com", Password: "hunter22"}
	require.Equal(t, http.StatusOK, postJSON(t, h.Signup, "/api/signup", req).Code)
	assert.Equal(t, http.StatusConflict, postJSON(t, h.Signup, "/api/signup", req).Code)
}

func TestLoginWithCorrectPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newFakeUserDB()
	h := NewAuthHandler(db)

	require.Equal(t, http.StatusOK, postJSON(t, h.Signup, "/api/signup", signupRequest{
		Email: "ada@example.com", Password: "hunter22",
	}).Code)

	rec := postJSON(t, h.Login, "/api/login", loginRequest{Email: "ada@example.com", Password: "hunter22"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newFakeUserDB()
	h := NewAuthHandler(db)

	require.Equal(t, http.StatusOK, postJSON(t, h.Signup, "/api/signup", signupRequest{
		Email: "ada@example.com", Password: "hunter22",
	}).Code)

	assert.Equal(t, http.StatusUnauthorized,
		postJSON(t, h.Login, "/api/login", loginRequest{Email: "ada@example.com", Password: "wrong"}).Code)
	assert.Equal(t, http.StatusUnauthorized,
		postJSON(t, h.Login, "/api/login", loginRequest{Email: "nobody@example.com", Password: "hunter22"}).Code)
}

func TestSignupRejectsMissingFields(t *testing.T) {
	h := NewAuthHandler(newFakeUserDB())
	assert.Equal(t, http.StatusBadRequest,
		postJSON(t, h.Signup, "/api/signup", signupRequest{Email: "", Password: ""}).Code)
}
