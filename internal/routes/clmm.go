package routes

import (
	"github.com/gin-gonic/gin"

	"lpcontrol/internal/handlers"
)

// SetupClmmRoutes sets up all routes related to CLMM pools and positions
func SetupClmmRoutes(r *gin.Engine, h *handlers.ClmmHandler) {
	clmm := r.Group("/clmm")
	{
		clmm.GET("/pools", h.ListPools)
		clmm.POST("/pools", h.CreatePool)
		clmm.GET("/pools/:address", h.GetPool)

		clmm.POST("/positions", h.OpenPosition)
		clmm.GET("/positions/:mint", h.GetPosition)
		clmm.POST("/positions/:mint/increase", h.IncreaseLiquidity)
		clmm.POST("/positions/:mint/decrease", h.DecreaseLiquidity)
		clmm.POST("/positions/:mint/close", h.ClosePosition)

		clmm.GET("/submissions", h.ListSubmissions)
		clmm.GET("/submissions/:signature", h.GetSubmission)
	}
}
