package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/services/auth/app"
	"github.com/questforge/questforge/internal/services/auth/password"
	"github.com/questforge/questforge/internal/services/auth/storage/sqlite"
	"github.com/questforge/questforge/internal/services/auth/token"
	transport "github.com/questforge/questforge/internal/transport/httpapi"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	tokens, err := token.NewService(token.Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:    "questforge",
		Audience:  "questforge-api",
		AccessTTL: 30 * time.Minute,
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	service, err := app.NewService(store, tokens, password.DefaultPolicy(), zap.NewNop())
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}

	router := mux.NewRouter()
	handler := NewHandler(service, zap.NewNop())
	handler.Register(router, transport.Authenticate(service))
	return router
}

func doJSON(t *testing.T, router *mux.Router, method, path, body, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func registerAlice(t *testing.T, router *mux.Router) {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/users/",
		`{"username":"alice","email":"alice@example.com","password":"Str0ngP@ss1"}`, "")
	if recorder.Code != http.StatusCreated {
		t.Fatalf("register status = %d body = %s", recorder.Code, recorder.Body.String())
	}
}

func loginAlice(t *testing.T, router *mux.Router) (access, refresh string) {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/token",
		`{"username":"alice","password":"Str0ngP@ss1"}`, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("login status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	var body struct {
		Session struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			TokenType    string `json:"token_type"`
		} `json:"session"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if body.Session.TokenType != "Bearer" {
		t.Fatalf("token type = %q", body.Session.TokenType)
	}
	return body.Session.AccessToken, body.Session.RefreshToken
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body transport.ErrorBody
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", recorder.Body.String(), err)
	}
	return body.Error.Code
}

func TestRegisterLoginProfileFlow(t *testing.T) {
	router := newTestRouter(t)
	registerAlice(t, router)
	access, _ := loginAlice(t, router)

	recorder := doJSON(t, router, http.MethodGet, "/users/profile", "", access)
	if recorder.Code != http.StatusOK {
		t.Fatalf("profile status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	var profile struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Username != "alice" || profile.Email != "alice@example.com" {
		t.Fatalf("profile = %+v", profile)
	}
	if strings.Contains(recorder.Body.String(), "password") {
		t.Fatalf("password material leaked: %s", recorder.Body.String())
	}
}

func TestLoginWrongPassword(t *testing.T) {
	router := newTestRouter(t)
	registerAlice(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/token",
		`{"username":"alice","password":"WrongP@ss1x"}`, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "AUTH_INVALID_CREDENTIALS" {
		t.Fatalf("code = %q", code)
	}
}

func TestLockoutOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	registerAlice(t, router)

	for i := 0; i < 5; i++ {
		doJSON(t, router, http.MethodPost, "/token",
			`{"username":"alice","password":"WrongP@ss1x"}`, "")
	}

	recorder := doJSON(t, router, http.MethodPost, "/token",
		`{"username":"alice","password":"Str0ngP@ss1"}`, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 while locked", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "AUTH_ACCOUNT_LOCKED" {
		t.Fatalf("code = %q", code)
	}
}

func TestRefreshRotationReplay(t *testing.T) {
	router := newTestRouter(t)
	registerAlice(t, router)
	_, refresh := loginAlice(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/auth/refresh",
		`{"refresh_token":"`+refresh+`"}`, "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("refresh status = %d body = %s", recorder.Code, recorder.Body.String())
	}

	replay := doJSON(t, router, http.MethodPost, "/auth/refresh",
		`{"refresh_token":"`+refresh+`"}`, "")
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d", replay.Code)
	}
	if code := errorCode(t, replay); code != "AUTH_REFRESH_TOKEN_INVALID" {
		t.Fatalf("code = %q", code)
	}
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	router := newTestRouter(t)
	registerAlice(t, router)
	_, refresh := loginAlice(t, router)

	recorder := doJSON(t, router, http.MethodPost, "/auth/logout",
		`{"refresh_token":"`+refresh+`"}`, "")
	if recorder.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", recorder.Code)
	}

	replay := doJSON(t, router, http.MethodPost, "/auth/refresh",
		`{"refresh_token":"`+refresh+`"}`, "")
	if replay.Code != http.StatusUnauthorized {
		t.Fatalf("refresh after logout status = %d", replay.Code)
	}
}

func TestProfileRequiresBearer(t *testing.T) {
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/users/profile", "", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "AUTH_ACCESS_TOKEN_MISSING" {
		t.Fatalf("code = %q", code)
	}
}

func TestRegisterValidationFailure(t *testing.T) {
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/users/",
		`{"username":"alice","email":"not-an-email","password":"Str0ngP@ss1"}`, "")
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "VALIDATION_FAILED" {
		t.Fatalf("code = %q", code)
	}
}

func TestPasswordPolicyIsPublic(t *testing.T) {
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/auth/password-policy", "", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
	var policy struct {
		MinLength int `json:"min_length"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &policy); err != nil {
		t.Fatalf("decode policy: %v", err)
	}
	if policy.MinLength != 8 {
		t.Fatalf("min_length = %d, want 8", policy.MinLength)
	}
}

func TestUpdateProfileUsername(t *testing.T) {
	router := newTestRouter(t)
	registerAlice(t, router)
	access, _ := loginAlice(t, router)

	recorder := doJSON(t, router, http.MethodPatch, "/users/profile",
		`{"username":"alice2"}`, access)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", recorder.Code, recorder.Body.String())
	}
	var profile struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Username != "alice2" {
		t.Fatalf("username = %q, want alice2", profile.Username)
	}
}

func TestMalformedBody(t *testing.T) {
	router := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/users/", `{"username":`, "")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", recorder.Code)
	}
	if code := errorCode(t, recorder); code != "MALFORMED_REQUEST" {
		t.Fatalf("code = %q", code)
	}
}
