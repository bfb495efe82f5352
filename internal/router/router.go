package router

import (
	"github.com/fasthttp/router"

	apiHandler "github.com/fastygo/todoboard/api/handler"
)

type Handlers struct {
	Task      *apiHandler.TaskHandler
	Analytics *apiHandler.AnalyticsHandler
	Health    *apiHandler.HealthHandler
}

// New registers every route. Paths end with a slash; the router redirects
// the bare form.
func New(handlers Handlers) *router.Router {
	r := router.New()
	r.RedirectTrailingSlash = true

	r.GET("/health", handlers.Health.Check)

	todos := r.Group("/api/todos")
	todos.GET("/", handlers.Task.ListTasks)
	todos.POST("/", handlers.Task.CreateTask)
	todos.GET("/{id}/", handlers.Task.GetTask)
	todos.PUT("/{id}/", handlers.Task.UpdateTask)
	todos.PATCH("/{id}/", handlers.Task.PatchTask)
	todos.DELETE("/{id}/", handlers.Task.DeleteTask)
	todos.PATCH("/{id}/mark_complete/", handlers.Task.MarkComplete)
	todos.GET("/{id}/history/", handlers.Task.History)

	analytics := r.Group("/api/analytics")
	analytics.GET("/completion-stats/", handlers.Analytics.CompletionStats)
	analytics.GET("/productivity-patterns/", handlers.Analytics.ProductivityPatterns)
	analytics.GET("/duration-analysis/", handlers.Analytics.DurationAnalysis)
	analytics.GET("/activity-heatmap/", handlers.Analytics.ActivityHeatmap)

	return r
}
