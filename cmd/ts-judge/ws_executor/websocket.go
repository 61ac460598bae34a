package wsexecutor

import (
	"context"
	"net/http"
	"time"

	"github.com/criyle/ts-judge/cmd/ts-judge/model"
	"github.com/criyle/ts-judge/judger"
	"github.com/criyle/ts-judge/types"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Register registers web socket handle /ws/problems/:id
type Register interface {
	Register(*gin.Engine)
}

// New creates new websocket handle
func New(judger *judger.Judger, logger *zap.Logger) Register {
	return &wsHandle{
		judger: judger,
		logger: logger,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

type wsHandle struct {
	judger *judger.Judger
	logger *zap.Logger
}

func (h *wsHandle) Register(r *gin.Engine) {
	r.GET("/ws/problems/:id", h.handleWS)
}

// handleWS judges every run request received on the connection and streams
// compiled / progress / finished messages back
func (h *wsHandle) handleWS(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.judger.Catalog.Get(id); !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, "problem not found")
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.Error(err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	resultCh := make(chan model.Progress, 128)
	report := func(p types.JudgeProgress) {
		select {
		case resultCh <- model.ConvertProgress(p):
		case <-ctx.Done():
		}
	}

	// read request
	go func() {
		defer cancel()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		for {
			req := new(model.ProblemRunRequest)
			if err := conn.ReadJSON(req); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					h.logger.Warn("ws read error", zap.Error(err))
				}
				return
			}
			go func() {
				_, err := h.judger.Judge(ctx, judger.Task{
					ProblemID:   id,
					Code:        req.Code,
					UseSolution: req.UseSolution,
					Reporter:    judger.ReporterFunc(report),
				})
				if err != nil {
					h.logger.Warn("judge error", zap.String("problemId", id), zap.Error(err))
				}
			}()
		}
	}()

	// write result
	go func() {
		defer conn.Close()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			case r := <-resultCh:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(r); err != nil {
					h.logger.Warn("ws write error", zap.Error(err))
					cancel()
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()
}
