package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/planner/api/handler"
)

const (
	tasksPath  = "/api/v1/tasks"
	topicsPath = "/api/v1/forum/topics"
)

type Handlers struct {
	Auth         *apiHandler.AuthHandler
	Profile      *apiHandler.ProfileHandler
	Task         *apiHandler.TaskHandler
	Calendar     *apiHandler.CalendarHandler
	Notification *apiHandler.NotificationHandler
	Chat         *apiHandler.ChatHandler
	Grades       *apiHandler.GradesHandler
	Forum        *apiHandler.ForumHandler
	Health       *apiHandler.HealthHandler
}

func New(handlers Handlers, protected func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)
	r.POST("/api/chat", handlers.Chat.Chat)

	// Auth routes
	r.POST("/api/v1/auth/register", handlers.Auth.Register)
	r.POST("/api/v1/auth/login", handlers.Auth.Login)
	r.POST("/api/v1/auth/refresh", protected(handlers.Auth.Refresh))
	r.POST("/api/v1/auth/logout", protected(handlers.Auth.Logout))

	r.GET("/api/v1/profile", protected(handlers.Profile.GetProfile))
	r.PUT("/api/v1/profile", protected(handlers.Profile.UpdateProfile))

	r.GET(tasksPath, protected(handlers.Task.List))
	r.POST(tasksPath, protected(handlers.Task.Create))
	r.GET(tasksPath+"/upcoming", protected(handlers.Task.Upcoming))
	r.GET(tasksPath+"/stats", protected(handlers.Task.Stats))
	r.GET(tasksPath+"/export", protected(handlers.Task.Export))
	r.POST(tasksPath+"/import", protected(handlers.Task.Import))
	r.GET(tasksPath+"/{id}", protected(handlers.Task.Get))
	r.PUT(tasksPath+"/{id}", protected(handlers.Task.Update))
	r.DELETE(tasksPath+"/{id}", protected(handlers.Task.Delete))
	r.POST(tasksPath+"/{id}/duplicate", protected(handlers.Task.Duplicate))
	r.POST(tasksPath+"/{id}/toggle", protected(handlers.Task.Toggle))
	r.GET(tasksPath+"/{id}/calendar.ics", protected(handlers.Calendar.TaskICS))

	r.GET("/api/v1/calendar", protected(handlers.Calendar.View))
	r.POST("/api/v1/calendar/sync", protected(handlers.Calendar.Sync))

	r.GET("/api/v1/notifications", protected(handlers.Notification.List))
	r.DELETE("/api/v1/notifications", protected(handlers.Notification.Clear))

	r.GET("/api/v1/grades", protected(handlers.Grades.Overview))

	r.GET(topicsPath, protected(handlers.Forum.List))
	r.POST(topicsPath, protected(handlers.Forum.Create))
	r.GET(topicsPath+"/{id}", protected(handlers.Forum.Get))
	r.POST(topicsPath+"/{id}/replies", protected(handlers.Forum.Reply))
	r.POST(topicsPath+"/{id}/like", protected(handlers.Forum.Like))

	return r
}
