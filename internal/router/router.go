package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/printops/issue-service/api"
	"github.com/printops/issue-service/internal/handler"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	pathHealth  = "/health"
	pathReady   = "/ready"
	pathSwagger = "/swagger"
)

func New(issueHandler *handler.IssueHandler) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(pathHealth, gin.WrapF(handler.Health))
	r.GET(pathReady, gin.WrapF(handler.Ready))
	r.GET(pathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, pathSwagger+"/") })
	r.GET(pathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = pathSwagger + "/index.html"
			c.Request.RequestURI = pathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/issues", issueHandler.Report)
		v1.GET("/issues/:id", issueHandler.Get)
		v1.GET("/issues", issueHandler.List)
		v1.POST("/issues/:id/review", issueHandler.Review)
		v1.POST("/issues/:id/messages", issueHandler.AddMessage)
		v1.POST("/issues/:id/conclude", issueHandler.Conclude)
		v1.POST("/issues/:id/reopen", issueHandler.Reopen)
		v1.PUT("/issues/:id/carrier-fault", issueHandler.SetCarrierFault)
	}

	return r
}
