package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/Chamindu77/SFBS-Backend/internal/auth"
	"github.com/Chamindu77/SFBS-Backend/internal/middlewares"
	"github.com/Chamindu77/SFBS-Backend/internal/service"
)

type Deps struct {
	Bookings   *service.BookingService
	Facilities *service.FacilityService
	JWTSecret  string
	// UploadDir is served under /uploads when set.
	UploadDir string
}

func NewRouter(d Deps) *gin.Engine {
	// неизвестные поля JSON: 400, а не молча игнорируем
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.MaxMultipartMemory = maxUpload

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.UploadDir != "" {
		r.Static("/uploads", d.UploadDir)
	}

	jwt := middlewares.JWTAuth(d.JWTSecret)
	admin := middlewares.RequireRole(auth.RoleAdmin)

	v1 := r.Group("/v1")
	{
		bh := NewBookingHandler(d.Bookings)
		fb := v1.Group("/facility-bookings")
		fb.POST("/available-slots", bh.AvailableSlots)
		fb.POST("/available-facilities", bh.AvailableFacilities)

		secured := fb.Group("")
		secured.Use(jwt)
		{
			secured.POST("", bh.Create)
			secured.GET("", admin, bh.List)
			secured.GET("/user/:userId", middlewares.SelfOrRole("userId", auth.RoleAdmin), bh.ListByUser)
			secured.GET("/:id", bh.Get)
			secured.GET("/:id/qr", bh.QRCode)
		}

		fh := NewFacilityHandler(d.Facilities)
		fac := v1.Group("/facilities")
		fac.GET("", fh.List)
		fac.GET("/:id", fh.Get)
		fac.POST("", jwt, admin, fh.Create)
		fac.PUT("/:id", jwt, admin, fh.Update)
		fac.PATCH("/:id/toggle", jwt, admin, fh.Toggle)
		fac.DELETE("/:id", jwt, admin, fh.Delete)
	}
	return r
}
