package handler

import "github.com/gin-gonic/gin"

// Handlers groups every handler served by the router
type Handlers struct {
	Plan   *PlanHandler
	Chat   *ChatHandler
	Data   *DataHandler
	Health *HealthHandler
}

// RegisterRoutes mounts the API on r
func RegisterRoutes(r gin.IRouter, h Handlers) {
	r.GET("/health", h.Health.GetHealth)

	v1 := r.Group("/api/v1")
	v1.POST("/onboarding", h.Plan.PostOnboarding)
	v1.GET("/profile", h.Plan.GetProfile)

	p := v1.Group("/plan")
	p.GET("", h.Plan.GetPlan)
	p.POST("/adjustments", h.Plan.PostAdjustment)
	p.PATCH("/weeks/:weekIndex/workouts/:workoutId", h.Plan.PatchWorkout)
	p.GET("/workouts/:workoutId", h.Plan.GetWorkout)
	p.GET("/progress", h.Plan.GetProgress)
	p.GET("/report", h.Data.GetReport)

	chat := v1.Group("/chat")
	chat.GET("", h.Chat.GetChat)
	chat.POST("/open", h.Chat.PostOpen)
	chat.POST("/close", h.Chat.PostClose)
	chat.POST("/messages", h.Chat.PostMessage)

	v1.GET("/data", h.Data.ExportData)
	v1.DELETE("/data", h.Data.DeleteData)
}
