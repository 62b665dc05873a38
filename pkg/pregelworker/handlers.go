package pregelworker

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arangodb/pregel-worker/pkg/pregelapi"
)

// RegisterRoutes wires a Worker's four lifecycle RPCs plus the inbound
// peer-message and health endpoints onto a gin router, grounded on
// bagel/coord.go's gin.Engine usage for its own AddWorker/DeleteWorker
// HTTP surface - the only HTTP transport already present in the
// teacher's stack.
func RegisterRoutes[V, E, M any](r *gin.Engine, basePath string, w *Worker[V, E, M]) {
	grp := r.Group(basePath)

	grp.POST("/prepareGlobalStep", func(c *gin.Context) {
		var req pregelapi.PrepareGlobalStepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, pregelapi.WrapBind(err, "prepareGlobalStep"))
			return
		}
		if apiErr := w.PrepareGlobalStep(req); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.Status(http.StatusNoContent)
	})

	grp.POST("/startGlobalStep", func(c *gin.Context) {
		var req pregelapi.StartGlobalStepRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, pregelapi.WrapBind(err, "startGlobalStep"))
			return
		}
		if apiErr := w.StartGlobalStep(req); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.Status(http.StatusNoContent)
	})

	grp.POST("/receivedMessages", func(c *gin.Context) {
		var req pregelapi.ReceivedMessagesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, pregelapi.WrapBind(err, "receivedMessages"))
			return
		}
		if apiErr := w.ReceivedMessages(req); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.Status(http.StatusNoContent)
	})

	// messages is the inbound side of the peer-to-peer transport: the
	// same write-cache merge as receivedMessages, reached from another
	// worker's OutgoingCache.sendMessages rather than from the
	// conductor.
	grp.POST("/messages", func(c *gin.Context) {
		var body pregelapi.PeerMessageDelivery
		if err := c.ShouldBindJSON(&body); err != nil {
			writeError(c, pregelapi.WrapBind(err, "messages"))
			return
		}
		gss := body.GSS
		req := pregelapi.ReceivedMessagesRequest{GSS: &gss, Messages: body.Messages}
		if apiErr := w.ReceivedMessages(req); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.Status(http.StatusNoContent)
	})

	grp.POST("/finalizeExecution", func(c *gin.Context) {
		var req pregelapi.FinalizeExecutionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, pregelapi.WrapBind(err, "finalizeExecution"))
			return
		}
		if apiErr := w.FinalizeExecution(c.Request.Context(), req); apiErr != nil {
			writeError(c, apiErr)
			return
		}
		c.Status(http.StatusNoContent)
	})

	grp.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"running": w.isRunning()})
	})
}

func writeError(c *gin.Context, err *pregelapi.Error) {
	c.JSON(err.Kind.HTTPStatus(), gin.H{"error": err.Error(), "kind": err.Kind.String()})
}
