package restexecutor

import (
	"net/http"

	"github.com/criyle/ts-judge/cmd/ts-judge/model"
	"github.com/criyle/ts-judge/worker"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type runHandle struct {
	worker worker.Worker
	logger *zap.Logger
}

// NewRunHandle creates a handle that runs snippets against ad-hoc test cases
func NewRunHandle(worker worker.Worker, logger *zap.Logger) Register {
	return &runHandle{
		worker: worker,
		logger: logger,
	}
}

func (h *runHandle) Register(r *gin.Engine) {
	r.POST("/run", h.handleRun)
}

func (h *runHandle) handleRun(ctx *gin.Context) {
	var req model.RunRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.Error(err)
		ctx.AbortWithStatusJSON(http.StatusBadRequest, err.Error())
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	r := &worker.Request{
		RequestID: req.RequestID,
		Request:   model.ConvertRunRequest(&req),
	}
	h.logger.Debug("request", zap.String("requestId", r.RequestID), zap.Int("testCases", len(r.TestCases)))
	rt := <-h.worker.Submit(ctx.Request.Context(), r)
	h.logger.Debug("response", zap.Stringer("response", rt))

	res := model.ConvertResult(rt.Result)
	res.RequestID = rt.RequestID
	ctx.JSON(http.StatusOK, res)
}
