package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	statusCode int

	Message string `json:"message"`
}

func RenderErr(ctx *gin.Context, err *Err) {
	ctx.AbortWithStatusJSON(err.statusCode, err)
}

func ErrBadRequest(err error) *Err {
	return &Err{
		statusCode: http.StatusBadRequest,
		Message:    err.Error(),
	}
}

func ErrWrongCredentials(err error) *Err {
	return &Err{
		statusCode: http.StatusUnauthorized,
		Message:    err.Error(),
	}
}

func ErrPermissionDenied(err error) *Err {
	return &Err{
		statusCode: http.StatusForbidden,
		Message:    err.Error(),
	}
}

func ErrNotFound(resource, key string, value interface{}) *Err {
	return &Err{
		statusCode: http.StatusNotFound,
		Message:    fmt.Sprintf("%v with %v %v not found", resource, key, value),
	}
}

// ErrStaleData is for writes built on a snapshot that no longer matches
// the live state. The client should refetch and resubmit.
func ErrStaleData(err error) *Err {
	return &Err{
		statusCode: http.StatusConflict,
		Message:    err.Error(),
	}
}

func ErrInternalServerError(err error) *Err {
	zap.L().Error("internal server error", zap.Error(err))

	return &Err{
		statusCode: http.StatusInternalServerError,
		Message:    "something went wrong",
	}
}
