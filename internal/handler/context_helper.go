package handler

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jaseeljazc/campuss-atd/internal/middleware"
	"github.com/jaseeljazc/campuss-atd/internal/models"
	appErrors "github.com/jaseeljazc/campuss-atd/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorID(c *gin.Context) string {
	if claims := claimsFromContext(c); claims != nil {
		return claims.UserID
	}
	return ""
}

// querySemester parses the required ?semester= parameter.
func querySemester(c *gin.Context) (int, error) {
	raw := c.Query("semester")
	if raw == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "semester query parameter is required")
	}
	semester, err := strconv.Atoi(raw)
	if err != nil || semester < models.MinSemester || semester > models.MaxSemester {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("semester must be an integer between %d and %d", models.MinSemester, models.MaxSemester))
	}
	return semester, nil
}

// queryOptionalSemester parses ?semester= when present.
func queryOptionalSemester(c *gin.Context) (*int, error) {
	if c.Query("semester") == "" {
		return nil, nil
	}
	semester, err := querySemester(c)
	if err != nil {
		return nil, err
	}
	return &semester, nil
}

// queryDate parses a YYYY-MM-DD query parameter when present.
func queryDate(c *gin.Context, name string) (*models.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a YYYY-MM-DD date", name))
	}
	return &date, nil
}

func queryDateRange(c *gin.Context) (*models.Date, *models.Date, error) {
	from, err := queryDate(c, "from")
	if err != nil {
		return nil, nil, err
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	return from, to, nil
}
