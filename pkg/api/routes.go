package api

import (
	"context"
	"log/slog"
	"net/http"

	"lwm2mbridge/pkg/models"

	"github.com/gin-gonic/gin"
)

// OperationDispatcher runs one operation request to completion.
type OperationDispatcher interface {
	Dispatch(ctx context.Context, req models.OperationRequest) models.OperationResult
}

// RegisterOperationRoute mounts the LwM2M operation endpoint.
func RegisterOperationRoute(g *gin.RouterGroup, d OperationDispatcher) {
	g.POST("/operations", operationHandler(d))
}

// RegisterHealthRoute mounts an unauthenticated liveness probe.
func RegisterHealthRoute(r gin.IRoutes) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

// operationHandler answers with the result's status code and JSON body verbatim.
func operationHandler(d OperationDispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.OperationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid operation request: "+err.Error())
			return
		}

		// A started request runs to completion even if the caller goes away
		result := d.Dispatch(context.WithoutCancel(c.Request.Context()), req)

		slog.Info("Operation request handled", "component", "API", "status", result.StatusCode, "operator", c.GetString(operatorKey))
		c.Data(result.StatusCode, "application/json", []byte(result.Body))
	}
}
