package handler

import (
	"context"
	"net/http"

	"ortus/internal/middleware"
	"ortus/internal/usecase"

	"github.com/labstack/echo/v4"
)

// AuthService は /api/auth が使うusecase
type AuthService interface {
	Register(ctx context.Context, in usecase.RegisterInput) (usecase.AuthResult, error)
	Login(ctx context.Context, phoneNumber, password string) (usecase.AuthResult, error)
	Me(ctx context.Context, userID string) (usecase.UserProfile, error)
	UpdateDetails(ctx context.Context, userID string, in usecase.UpdateDetailsInput) (usecase.UserSummary, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type AuthHandler struct {
	uc AuthService
}

// DI
func NewAuthHandler(uc AuthService) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// /api/auth のリクエストボディ
type registerRequest struct {
	FullName    string `json:"fullName" validate:"required"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
}

type loginRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type updateDetailsRequest struct {
	FullName    *string `json:"fullName"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type updateDetailsResponse struct {
	Message string              `json:"message"`
	User    usecase.UserSummary `json:"user"`
}

func (h *AuthHandler) RegisterRoutes(api *echo.Group, g Guards) {
	auth := api.Group("/auth")

	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.POST("/request-password-reset", h.requestPasswordReset)
	auth.POST("/reset-password", h.resetPassword)

	auth.GET("/me", h.me, g.Protect...)
	auth.PATCH("/update-details", h.updateDetails, g.Protect...)
	auth.POST("/change-password", h.changePassword, g.Protect...)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Register(c.Request().Context(), usecase.RegisterInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.Login(c.Request().Context(), req.PhoneNumber, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) me(c echo.Context) error {
	out, err := h.uc.Me(c.Request().Context(), middleware.CurrentUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AuthHandler) updateDetails(c echo.Context) error {
	var req updateDetailsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	out, err := h.uc.UpdateDetails(c.Request().Context(), middleware.CurrentUserID(c), usecase.UpdateDetailsInput{
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, updateDetailsResponse{Message: "user details updated", User: out})
}

func (h *AuthHandler) changePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.ChangePassword(c.Request().Context(), middleware.CurrentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "password changed"})
}

func (h *AuthHandler) requestPasswordReset(c echo.Context) error {
	var req passwordResetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "reset code sent to email"})
}

func (h *AuthHandler) resetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.uc.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "password has been reset"})
}
