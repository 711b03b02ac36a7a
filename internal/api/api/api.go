package api

import (
	"confreg/cmd/middleware"
	"confreg/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"
)

type Routers struct {
	Service service.Service
}

const landingPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>AusIMM Conference Registration</title></head>
<body>
  <h1>AusIMM Conference Registration</h1>
  <p>API is running. See /v1 for endpoints.</p>
</body>
</html>
`

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/register", r.Service.Register)
	apiGroup.PUT("/payments/:registration_id", r.Service.UpdatePayment)
	apiGroup.POST("/certificates/:registration_id", r.Service.GenerateCertificate)
	apiGroup.GET("/certificates/download/:certificate_code", r.Service.DownloadCertificate)
	apiGroup.GET("/sessions", r.Service.ListSessions)
	apiGroup.POST("/sessions/:session_id/register", r.Service.RegisterForSession)
	apiGroup.POST("/feedback", r.Service.SubmitFeedback)
	apiGroup.GET("/admin/participants", r.Service.ListParticipants)
	apiGroup.PUT("/admin/sessions/:session_id/attendance", r.Service.MarkAttendance)

	app.GET("/", func(c *ginext.Context) {
		c.Data(200, "text/html; charset=utf-8", []byte(landingPage))
	})

	return app
}
