package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vitalog/internal/db"
	"github.com/vitalog/internal/service"
)

type registerPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account and hands back a bearer token.
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindStrictJSON(c, &payload) {
		return
	}

	user, err := a.auth.Register(service.RegisterInput{
		Email:    payload.Email,
		Password: payload.Password,
		Name:     payload.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, http.StatusBadRequest, "email already registered")
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, http.StatusBadRequest, "email and password are required")
		default:
			a.log.Error("register failed", "error", err)
			respondError(c, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	token, err := a.auth.IssueToken(user)
	if err != nil {
		a.log.Error("token issue failed", "error", err, "user_id", user.ID)
		respondError(c, http.StatusInternalServerError, "registration failed")
		return
	}

	respondSuccess(c, http.StatusCreated, gin.H{
		"user":  userToPayload(user),
		"token": token,
	}, "account created successfully")
}

// Login verifies credentials and hands back a bearer token.
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindStrictJSON(c, &payload) {
		return
	}

	user, err := a.auth.Login(payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		a.log.Error("login failed", "error", err)
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	token, err := a.auth.IssueToken(user)
	if err != nil {
		a.log.Error("token issue failed", "error", err, "user_id", user.ID)
		respondError(c, http.StatusInternalServerError, "login failed")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"user":  userToPayload(user),
		"token": token,
	}, "logged in successfully")
}

// AuthRequired parses the Authorization bearer token and stores the user id
// on the request context.
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 8 || !strings.EqualFold(header[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		userID, err := a.auth.ParseToken(header[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}

		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

func userToPayload(user *db.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	}
}
