package restexecutor

import (
	"context"
	"net/http"

	"github.com/criyle/ts-judge/problem"
	"github.com/criyle/ts-judge/progress"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type progressHandle struct {
	catalog problem.Catalog
	store   progress.Store
	logger  *zap.Logger
}

// NewProgressHandle creates a handle for the solved problem progress
func NewProgressHandle(catalog problem.Catalog, store progress.Store, logger *zap.Logger) Register {
	return &progressHandle{
		catalog: catalog,
		store:   store,
		logger:  logger,
	}
}

func (h *progressHandle) Register(r *gin.Engine) {
	r.GET("/progress", h.handleStats)
	r.PUT("/progress/:id", h.handleMark)
	r.DELETE("/progress/:id", h.handleUnmark)
}

func (h *progressHandle) handleStats(ctx *gin.Context) {
	st, err := h.store.Stats(ctx.Request.Context())
	if err != nil {
		ctx.Error(err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, err.Error())
		return
	}
	ctx.JSON(http.StatusOK, st)
}

func (h *progressHandle) handleMark(ctx *gin.Context) {
	h.update(ctx, h.store.MarkSolved)
}

func (h *progressHandle) handleUnmark(ctx *gin.Context) {
	h.update(ctx, h.store.MarkUnsolved)
}

func (h *progressHandle) update(ctx *gin.Context, f func(ctx context.Context, id string) error) {
	id := ctx.Param("id")
	if _, ok := h.catalog.Get(id); !ok {
		ctx.AbortWithStatusJSON(http.StatusNotFound, "problem not found")
		return
	}
	if err := f(ctx.Request.Context(), id); err != nil {
		ctx.Error(err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.Debug("progress updated", zap.String("problemId", id), zap.String("method", ctx.Request.Method))
	h.handleStats(ctx)
}
