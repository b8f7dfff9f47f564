package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminUserHeader names the administrator acting on an approval. Admin
// authentication happens upstream of the gateway.
const AdminUserHeader = "X-Admin-User"

const defaultReviewer = "admin"

// uuidParam parses a path parameter and answers 400 when it is not a UUID.
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondBadRequest(c, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

func reviewer(c *gin.Context) string {
	if r := strings.TrimSpace(c.GetHeader(AdminUserHeader)); r != "" {
		return r
	}
	return defaultReviewer
}
