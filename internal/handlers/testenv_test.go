package handlers_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mkosyrev/product-store/internal/handlers"
	"github.com/mkosyrev/product-store/internal/hash"
	authmw "github.com/mkosyrev/product-store/internal/middleware/auth"
	"github.com/mkosyrev/product-store/internal/models"
	"github.com/mkosyrev/product-store/internal/mykafka"
	"github.com/mkosyrev/product-store/internal/tokens"
	httpserver "github.com/mkosyrev/product-store/internal/transport/http"
	"github.com/mkosyrev/product-store/internal/users"
)

const (
	adminEmail    = "admin@example.com"
	userEmail     = "user@example.com"
	plainPassword = "correct-horse-42"
)

type testEnv struct {
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *tokens.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Product{}))

	svc, err := tokens.NewService(
		base64.StdEncoding.EncodeToString([]byte("e2e-access-secret-0123456789abc")),
		base64.StdEncoding.EncodeToString([]byte("e2e-refresh-secret-0123456789ab")),
	)
	require.NoError(t, err)

	passwordHash, err := hash.HashPassword(plainPassword)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		Email: adminEmail, Name: "Admin", PasswordHash: passwordHash, Role: models.RoleAdmin,
	}).Error)
	require.NoError(t, db.Create(&models.User{
		Email: userEmail, Name: "User", PasswordHash: passwordHash, Role: models.RoleUser,
	}).Error)

	userService := &users.Service{DB: db}
	producer := mykafka.NewProducer("")

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		DB: db,
		AuthHandler: &handlers.AuthHandler{
			DB: db, Tokens: svc, Users: userService, Producer: producer,
		},
		ProductHandler: &handlers.ProductHandler{DB: db, Producer: producer},
		Filter:         &authmw.Filter{Tokens: svc, Users: userService},
	})

	return &testEnv{E: e, DB: db, Tokens: svc}
}

// do runs one request through the full router, middleware included.
func (env *testEnv) do(t *testing.T, method, target string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		payload = bytes.NewBuffer(data)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, target, payload)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) accessCookie(t *testing.T, email string) *http.Cookie {
	t.Helper()
	token, err := env.Tokens.IssueAccess(email)
	require.NoError(t, err)
	return &http.Cookie{Name: tokens.AccessCookie, Value: token, Path: "/"}
}

func (env *testEnv) refreshCookie(t *testing.T, email string) *http.Cookie {
	t.Helper()
	token, err := env.Tokens.IssueRefresh(email)
	require.NoError(t, err)
	return &http.Cookie{Name: tokens.RefreshCookie, Value: token, Path: "/"}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	res := &http.Response{Header: rec.Header()}
	for _, ck := range res.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}
