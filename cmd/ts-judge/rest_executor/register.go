package restexecutor

import "github.com/gin-gonic/gin"

// Register registers the handler to the router
type Register interface {
	Register(*gin.Engine)
}
