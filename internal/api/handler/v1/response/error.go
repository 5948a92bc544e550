package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	StatusCode int    `json:"-"`
	Msg        string `json:"msg"`
}

func (e *Err) Error() string {
	return e.Msg
}

func NewErr(statusCode int, msg string) *Err {
	return &Err{
		StatusCode: statusCode,
		Msg:        msg,
	}
}

func ErrBadRequest(err error) *Err {
	return NewErr(http.StatusBadRequest, err.Error())
}

func ErrNotFound(err error) *Err {
	return NewErr(http.StatusNotFound, err.Error())
}

func ErrConflict(err error) *Err {
	return NewErr(http.StatusConflict, err.Error())
}

func ErrUnauthorized(err error) *Err {
	return NewErr(http.StatusUnauthorized, err.Error())
}

func ErrServiceUnavailable(err error) *Err {
	return NewErr(http.StatusServiceUnavailable, err.Error())
}

func ErrGatewayTimeout(err error) *Err {
	return NewErr(http.StatusGatewayTimeout, err.Error())
}

func ErrInternalServerError(err error) *Err {
	zap.L().Error("internal server error", zap.Error(err))

	return NewErr(http.StatusInternalServerError, "internal server error")
}

func RenderErr(ctx *gin.Context, err *Err) {
	ctx.AbortWithStatusJSON(err.StatusCode, err)
}
