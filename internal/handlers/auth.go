package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/mkosyrev/product-store/internal/hash"
	"github.com/mkosyrev/product-store/internal/metrics"
	"github.com/mkosyrev/product-store/internal/models"
	"github.com/mkosyrev/product-store/internal/mykafka"
	"github.com/mkosyrev/product-store/internal/tokens"
	"github.com/mkosyrev/product-store/internal/users"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *tokens.Service
	Users    *users.Service
	Producer *mykafka.Producer
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "user lookup failed")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not hash password")
	}

	user := models.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create user")
	}

	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.Users.ByEmail(c.Request().Context(), req.Email)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		if errors.Is(err, users.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "user lookup failed")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	accessToken, err := h.Tokens.IssueAccess(user.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}
	refreshToken, err := h.Tokens.IssueRefresh(user.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create refresh token")
	}

	c.SetCookie(CreateCookie(tokens.AccessCookie, accessToken, "/", time.Now().Add(h.Tokens.AccessTTL)))
	c.SetCookie(CreateCookie(tokens.RefreshCookie, refreshToken, "/", time.Now().Add(h.Tokens.RefreshTTL)))

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.publish(c, fmt.Sprint(user.ID), map[string]interface{}{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

// Access exchanges a valid refresh-token cookie for a fresh access token.
// The subject must still resolve to a user.
func (h *AuthHandler) Access(c echo.Context) error {
	raw, ok := tokens.FromRequest(c.Request(), tokens.RefreshCookie)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}
	if err := h.Tokens.CheckRefresh(raw); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	claims, err := h.Tokens.RefreshClaims(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
	}

	user, err := h.Users.ByEmail(c.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown principal")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "user lookup failed")
	}

	accessToken, err := h.Tokens.IssueAccess(user.Email)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not create access token")
	}
	c.SetCookie(CreateCookie(tokens.AccessCookie, accessToken, "/", time.Now().Add(h.Tokens.AccessTTL)))

	return c.JSON(http.StatusOK, echo.Map{"access_token": accessToken})
}

// LogOut expires both token cookies. Tokens are stateless, so there is
// nothing to revoke server-side.
func (h *AuthHandler) LogOut(c echo.Context) error {
	c.SetCookie(DeleteCookie(tokens.AccessCookie, "/"))
	c.SetCookie(DeleteCookie(tokens.RefreshCookie, "/"))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) publish(c echo.Context, key string, event map[string]interface{}) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", key, event); err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("kafka publish failed")
	}
}
