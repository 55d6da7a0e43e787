package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"complaint-service/internal/apperr"
)

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.Validationf("invalid %s", name)
	}
	return id, nil
}

// bindJSON decodes the body. Field rules are checked by the services.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}
