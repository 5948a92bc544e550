package v1

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lottagg/raffle-api/internal/api/handler/v1/request"
	"github.com/lottagg/raffle-api/internal/api/handler/v1/response"
	"github.com/lottagg/raffle-api/internal/config"
	"github.com/lottagg/raffle-api/internal/pkg/jwthelper"
)

const operatorTokenTTL = 12 * time.Hour

var errBadAPIKey = errors.New("invalid api key")

type AuthHandler struct {
	conf *config.APIConfig
}

func NewAuthHandler(conf *config.APIConfig) *AuthHandler {
	return &AuthHandler{
		conf: conf,
	}
}

// HandleOperatorToken godoc
// @Summary      Exchange the operator API key for a JWT
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request  body      request.OperatorTokenRequest  true  "request body"
// @Success      200      {object}  response.TokenResponse
// @Failure      400      {object}  response.Err
// @Failure      401      {object}  response.Err
// @Router       /auth/token [post]
func (h *AuthHandler) HandleOperatorToken(ctx *gin.Context) {
	var req request.OperatorTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.conf.OperatorAPIKey)) != 1 {
		response.RenderErr(ctx, response.ErrUnauthorized(errBadAPIKey))
		return
	}

	token, err := jwthelper.GenerateToken(h.conf.JWTSigningKey, "operator", operatorTokenTTL)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.TokenResponse{Token: token})
}
