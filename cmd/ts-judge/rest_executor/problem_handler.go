package restexecutor

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/criyle/ts-judge/cmd/ts-judge/model"
	"github.com/criyle/ts-judge/judger"
	"github.com/criyle/ts-judge/problem"
	"github.com/criyle/ts-judge/progress"
	"github.com/criyle/ts-judge/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type problemHandle struct {
	catalog  problem.Catalog
	judger   *judger.Judger
	progress progress.Store
	logger   *zap.Logger
}

// NewProblemHandle creates a handle for the problem catalog
func NewProblemHandle(j *judger.Judger, logger *zap.Logger) Register {
	return &problemHandle{
		catalog:  j.Catalog,
		judger:   j,
		progress: j.Progress,
		logger:   logger,
	}
}

func (h *problemHandle) Register(r *gin.Engine) {
	r.GET("/problems", h.handleList)
	r.GET("/problems/:id", h.handleGet)
	r.POST("/problems/:id/run", h.handleRun)
}

// handleList lists problems, optionally filtered by difficulty, category or
// a case insensitive query on id and title
func (h *problemHandle) handleList(ctx *gin.Context) {
	difficulty := types.Difficulty(ctx.Query("difficulty"))
	category := ctx.Query("category")
	q := strings.ToLower(ctx.Query("q"))

	ret := make([]model.ProblemSummary, 0)
	for _, p := range h.catalog.All() {
		if difficulty != "" && p.Difficulty != difficulty {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.ID), q) && !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		solved, err := h.isSolved(ctx, p.ID)
		if err != nil {
			ctx.Error(err)
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, err.Error())
			return
		}
		ret = append(ret, model.ConvertProblemSummary(p, solved))
	}
	ctx.JSON(http.StatusOK, ret)
}

func (h *problemHandle) handleGet(ctx *gin.Context) {
	id := ctx.Param("id")
	p, ok := h.catalog.Get(id)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusNotFound, "problem not found")
		return
	}
	solved, err := h.isSolved(ctx, id)
	if err != nil {
		ctx.Error(err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, err.Error())
		return
	}
	withSolution, _ := strconv.ParseBool(ctx.Query("solution"))
	prev, next := h.catalog.Adjacent(id)
	ctx.JSON(http.StatusOK, model.ConvertProblemDetail(p, prev, next, solved, withSolution))
}

func (h *problemHandle) handleRun(ctx *gin.Context) {
	var req model.ProblemRunRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(err)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, err.Error())
		return
	}
	rt, err := h.judger.Judge(ctx.Request.Context(), judger.Task{
		ProblemID:   ctx.Param("id"),
		Code:        req.Code,
		UseSolution: req.UseSolution,
	})
	if errors.Is(err, judger.ErrProblemNotFound) {
		ctx.AbortWithStatusJSON(http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		ctx.Error(err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, err.Error())
		return
	}
	ctx.JSON(http.StatusOK, model.ConvertJudgeResult(rt))
}

func (h *problemHandle) isSolved(ctx *gin.Context, id string) (bool, error) {
	if h.progress == nil {
		return false, nil
	}
	return h.progress.IsSolved(ctx.Request.Context(), id)
}
