package v1

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lottagg/raffle-api/internal/domain"
)

type DrawRunner interface {
	Draw(ctx context.Context, roundID string) (domain.Winner, error)
}

type ReconcileRunner interface {
	Run(ctx context.Context)
}

// AdminHandler serves the operator-only endpoints behind JWT auth.
type AdminHandler struct {
	draws      DrawRunner
	reconciler ReconcileRunner
}

func NewAdminHandler(draws DrawRunner, reconciler ReconcileRunner) *AdminHandler {
	return &AdminHandler{
		draws:      draws,
		reconciler: reconciler,
	}
}

// HandleDrawRound godoc
// @Summary      Draw the winner of an ended round
// @Tags         admin
// @Produce      json
// @Param        roundID  path      string  true  "round ID"
// @Success      200      {object}  domain.Winner
// @Failure      404      {object}  response.Err
// @Failure      409      {object}  response.Err
// @Security     BearerAuth
// @Router       /admin/rounds/{roundID}/draw [post]
func (h *AdminHandler) HandleDrawRound(ctx *gin.Context) {
	winner, err := h.draws.Draw(ctx.Request.Context(), ctx.Param("roundID"))
	if err != nil {
		renderServiceErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, winner)
}

// HandleReconcile godoc
// @Summary      Run one reconciliation sweep immediately
// @Tags         admin
// @Produce      json
// @Success      202  {object}  map[string]string
// @Security     BearerAuth
// @Router       /admin/reconcile [post]
func (h *AdminHandler) HandleReconcile(ctx *gin.Context) {
	h.reconciler.Run(ctx.Request.Context())

	ctx.JSON(http.StatusAccepted, gin.H{"status": "reconciled"})
}
