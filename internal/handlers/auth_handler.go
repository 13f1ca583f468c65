package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "hearth/internal/errors"
	"hearth/internal/middleware"
	"hearth/internal/models"
	"hearth/internal/services"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService      services.UserServicer
	householdService services.HouseholdServicer
	tokens           *middleware.TokenIssuer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userService services.UserServicer, householdService services.HouseholdServicer, tokens *middleware.TokenIssuer) *AuthHandler {
	return &AuthHandler{userService: userService, householdService: householdService, tokens: tokens}
}

// RegisterRequest represents the registration request payload. Without a
// household name the user starts a household of their own.
type RegisterRequest struct {
	Email         string `json:"email" binding:"required,email,max=255"`
	Password      string `json:"password" binding:"required,min=8,max=128"`
	FirstName     string `json:"first_name" binding:"max=100"`
	LastName      string `json:"last_name" binding:"max=100"`
	HouseholdName string `json:"household_name" binding:"max=100"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	HouseholdID *string `json:"household_id,omitempty"`
}

// AuthResponse represents the authentication response with token
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func newUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		HouseholdID: user.HouseholdID,
	}
}

// Register handles user registration
// @Summary     Register a new user
// @Description Register a new user and create their household
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} AuthResponse "User registered and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.CreateUser(ctx, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondWithError(c, err)
		return
	}

	name := strings.TrimSpace(req.HouseholdName)
	if name == "" {
		name = fmt.Sprintf("%s's household", user.DisplayName())
	}
	household, err := h.householdService.CreateHousehold(ctx, user.ID, name)
	if err != nil {
		respondWithError(c, err)
		return
	}
	user.HouseholdID = &household.ID

	token, err := h.tokens.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: newUserResponse(user)})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a user and get a token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and token generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	user, err := h.userService.AttemptLogin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: newUserResponse(user)})
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Description Get the authenticated user's profile information
// @Tags        user
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}
