package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// userIDContextKey is where AuthRequired stores the authenticated user id.
const userIDContextKey = "__user_id"

const (
	dateFormat = "2006-01-02"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func respondSuccess(c *gin.Context, status int, data gin.H, message string) {
	payload := gin.H{"data": data}
	if message != "" {
		payload["message"] = message
	}
	c.JSON(status, payload)
}

// bindStrictJSON decodes the request body into dst and rejects payloads
// carrying fields the target does not declare.
func bindStrictJSON(c *gin.Context, dst interface{}) bool {
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func currentUserID(c *gin.Context) string {
	value, exists := c.Get(userIDContextKey)
	if !exists {
		return ""
	}
	userID, _ := value.(string)
	return userID
}

// parseTimestamp accepts RFC 3339 instants and plain dates.
func parseTimestamp(value string) (*time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, true
	}
	if t, err := time.Parse(dateFormat, value); err == nil {
		return &t, true
	}
	return nil, false
}
