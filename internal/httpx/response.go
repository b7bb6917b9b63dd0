package httpx

import (
	"errors"
	"net/http"

	"github.com/akash27nik/Chat-App/internal/domain"
	"github.com/gin-gonic/gin"
)

func OK(c *gin.Context, v any) {
	c.JSON(200, v)
}

func Err(c *gin.Context, code int, msg any) {
	c.JSON(code, gin.H{"error": msg})
}

// Domain maps a core error onto the HTTP status it surfaces as.
func Domain(c *gin.Context, err error) {
	var ve domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		Err(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		Err(c, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrAlreadyLiked):
		Err(c, http.StatusConflict, err.Error())
	case errors.As(err, &ve):
		Err(c, http.StatusBadRequest, ve.Msg)
	case domain.IsTransient(err):
		Err(c, http.StatusServiceUnavailable, "temporary storage failure, retry")
	default:
		Err(c, http.StatusInternalServerError, "internal error")
	}
}
