package router

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/controller"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/middleware"
)

// SetAdminRouter wires the operator CRUD surface. Login sits behind the
// critical rate limit; everything else requires an admin session, bearer
// token, or an API key whose principal carries the admin flag.
func SetAdminRouter(engine *gin.Engine) {
	adminRoute := engine.Group("/admin")
	adminRoute.Use(middleware.TrackRequest())

	adminRoute.POST("/login", middleware.CriticalRateLimit(), controller.AdminLogin)
	adminRoute.GET("/logout", controller.AdminLogout)

	guarded := adminRoute.Group("")
	guarded.Use(middleware.AdminAuth())

	users := guarded.Group("/users")
	{
		users.POST("", controller.CreateUser)
		users.GET("", controller.GetUsers)
		users.GET("/:id", controller.GetUser)
		users.PUT("/:id", controller.UpdateUser)
		users.DELETE("/:id", controller.DeleteUser)
		users.POST("/:id/keys", controller.GenerateUserKey)
	}

	roles := guarded.Group("/roles")
	{
		roles.POST("", controller.CreateRole)
		roles.GET("", controller.GetRoles)
		roles.GET("/:id", controller.GetRole)
		roles.PUT("/:id", controller.UpdateRole)
		roles.DELETE("/:id", controller.DeleteRole)
	}

	quotas := guarded.Group("/quotas")
	{
		quotas.POST("", controller.CreateQuota)
		quotas.GET("", controller.GetQuotas)
		quotas.GET("/:id", controller.GetQuota)
		quotas.PUT("/:id", controller.UpdateQuota)
		quotas.DELETE("/:id", controller.DeleteQuota)
	}

	models := guarded.Group("/models")
	{
		models.POST("", controller.CreateModel)
		models.GET("", controller.GetModels)
		models.GET("/:id", controller.GetModel)
		models.PUT("/:id", controller.UpdateModel)
		models.DELETE("/:id", controller.DeleteModel)
	}
}
