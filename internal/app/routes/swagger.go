package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/shreyescodes/erp-portal/docs"
)

// SetupSwagger serves the API docs under /swagger. host overrides the host
// baked into the generated OpenAPI document so "Try it out" targets this server.
func SetupSwagger(router *gin.Engine, host string) {
	if host != "" {
		docs.SwaggerInfo.Host = host
	}
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
		ginSwagger.URL("/swagger/doc.json"),
		ginSwagger.DefaultModelsExpandDepth(1)))
}
