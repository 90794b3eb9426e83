package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rental/backend/internal/interfaces/http/handler"
	"github.com/rental/backend/internal/interfaces/http/middleware"
)

// Handlers are the HTTP handlers mounted under the API prefix
type Handlers struct {
	Auth          *handler.AuthHandler
	Rooms         *handler.RoomHandler
	Readings      *handler.ReadingHandler
	Billing       *handler.BillingHandler
	BillingStream *handler.BillingStreamHandler
	Repairs       *handler.RepairHandler
	Announcements *handler.AnnouncementHandler
	Transfer      *handler.TransferHandler
	Contracts     *handler.ContractHandler
	System        *handler.SystemHandler
}

// RegisterRentalRoutes adds the rental domain groups to r.
// authLimit guards login and registration and may be nil.
func RegisterRentalRoutes(r *Router, h Handlers, authLimit gin.HandlerFunc) {
	landlord := middleware.RequireLandlord()
	limited := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if authLimit == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{authLimit, fn}
	}

	auth := NewDomainGroup("auth", "/auth")
	auth.POST("/register", limited(h.Auth.Register)...)
	auth.POST("/login", limited(h.Auth.Login)...)
	auth.POST("/refresh", h.Auth.RefreshToken)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/me", h.Auth.GetCurrentUser)
	auth.PUT("/password", h.Auth.ChangePassword)

	rooms := NewDomainGroup("rooms", "/rooms")
	rooms.GET("", h.Rooms.List)
	rooms.POST("", landlord, h.Rooms.Create)
	rooms.GET("/:number", h.Rooms.Get)
	rooms.PUT("/:number", landlord, h.Rooms.Update)
	rooms.DELETE("/:number", landlord, h.Rooms.Delete)
	rooms.POST("/:number/vacate", landlord, h.Rooms.Vacate)
	if h.Contracts != nil {
		rooms.GET("/:number/contract", landlord, h.Contracts.Generate)
	}
	rooms.GET("/:number/readings", h.Readings.History)
	rooms.GET("/:number/readings/last-two", h.Readings.LastTwo)
	rooms.GET("/:number/readings/:month", h.Readings.Get)
	rooms.PUT("/:number/readings/:month", landlord, h.Readings.Record)
	rooms.DELETE("/:number/readings/:month", landlord, h.Readings.Delete)

	readings := NewDomainGroup("readings", "/readings")
	readings.GET("", h.Readings.List)
	readings.POST("/batch", landlord, h.Readings.RecordBatch)
	readings.GET("/:month", h.Readings.ListForMonth)

	billing := NewDomainGroup("billing", "/billing")
	billing.GET("/tariff", h.Billing.Tariff)
	billing.GET("/stream", h.BillingStream.Stream)
	billing.GET("/:month", h.Billing.GetMonth)
	billing.GET("/:month/export", h.Transfer.ExportBilling)

	repairs := NewDomainGroup("repairs", "/repairs")
	repairs.GET("", h.Repairs.List)
	repairs.POST("", h.Repairs.Submit)
	repairs.GET("/:id", h.Repairs.Get)
	repairs.PUT("/:id/status", landlord, h.Repairs.UpdateStatus)
	repairs.DELETE("/:id", landlord, h.Repairs.Delete)

	announcements := NewDomainGroup("announcements", "/announcements")
	announcements.GET("", h.Announcements.List)
	announcements.GET("/:id", h.Announcements.Get)
	announcements.POST("", landlord, h.Announcements.Create)
	announcements.PUT("/:id", landlord, h.Announcements.Update)
	announcements.DELETE("/:id", landlord, h.Announcements.Delete)

	imports := NewDomainGroup("import", "/import").Use(landlord)
	imports.POST("/rooms", h.Transfer.ImportRooms)
	imports.POST("/readings", h.Transfer.ImportReadings)

	exports := NewDomainGroup("export", "/export")
	exports.GET("/rooms", h.Transfer.ExportRooms)
	exports.GET("/readings", h.Transfer.ExportReadings)

	templates := NewDomainGroup("templates", "/templates")
	templates.GET("/rooms", h.Transfer.RoomTemplate)
	templates.GET("/readings", h.Transfer.ReadingTemplate)

	system := NewDomainGroup("system", "/system")
	system.GET("/info", h.System.GetSystemInfo)
	system.GET("/ping", h.System.Ping)

	r.Register(auth).
		Register(rooms).
		Register(readings).
		Register(billing).
		Register(repairs).
		Register(announcements).
		Register(imports).
		Register(exports).
		Register(templates).
		Register(system)
}
