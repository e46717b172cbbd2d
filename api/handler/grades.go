package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/planner/pkg/httpcontext"
	gradesUC "github.com/fastygo/planner/usecase/grades"
)

type GradesHandler struct {
	baseHandler
	uc *gradesUC.UseCase
}

func NewGradesHandler(uc *gradesUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *GradesHandler {
	return &GradesHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Subject predictions and overall stats
// @Tags grades
// @Router /api/v1/grades [get]
func (h *GradesHandler) Overview(ctx *fasthttp.RequestCtx) {
	if h.ownerID(ctx) == "" {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.uc.Overview())
}
