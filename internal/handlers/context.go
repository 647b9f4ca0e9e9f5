package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultListLimit = 20

// listLimit reads the optional ?limit= query parameter, clamped to a sane
// page size.
func listLimit(c *gin.Context) int64 {
	raw := c.Query("limit")
	if raw == "" {
		return defaultListLimit
	}

	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// entityObjectID pulls the authenticated entity's id out of the gin context
// and parses it. The auth middleware guarantees the key exists on protected
// routes; a malformed id still has to be handled.
func entityObjectID(c *gin.Context) (primitive.ObjectID, bool) {
	raw, exists := c.Get("entity_id")
	if !exists {
		return primitive.NilObjectID, false
	}

	idStr, ok := raw.(string)
	if !ok {
		return primitive.NilObjectID, false
	}

	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		return primitive.NilObjectID, false
	}

	return id, true
}
