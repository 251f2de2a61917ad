package routes

import (
	"food-ordering-api/auth"
	"food-ordering-api/handlers"
	"food-ordering-api/middleware"
	"food-ordering-api/models"

	"github.com/gin-gonic/gin"
)

const (
	admin    = models.RoleAdmin
	owner    = models.RoleRestaurantOwner
	courier  = models.RoleDeliveryPerson
	customer = models.RoleCustomer
)

// NewRouter builds the engine with the global middleware stack and every route.
func NewRouter(h *handlers.Handler, tokens *auth.Tokens, uploadDir string, production bool) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(production),
		middleware.CORS(),
		middleware.ErrorHandler(production),
	)
	SetupRoutes(r, h, tokens, uploadDir)
	return r
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, tokens *auth.Tokens, uploadDir string) {
	r.GET("/health", h.Health)
	r.Static("/uploads", uploadDir)
	r.GET("/ws", h.Subscribe)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/signup", h.SignUp)
		public.POST("/login", h.Login)

		public.GET("/restaurants", h.ListRestaurants)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/meals", h.ListMeals)
		public.GET("/restaurants/:id/categories", h.ListCategories)
		public.GET("/meals/:id", h.GetMeal)
		public.GET("/search", h.Search)

		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(middleware.AuthRequired(tokens))
	{
		authed.GET("/profile", h.GetProfile)
		authed.GET("/users/:id", h.GetUser)
		authed.GET("/users/:id/orders", h.UserOrders)

		authed.POST("/orders", middleware.RoleRequired(customer), h.CreateOrder)
		authed.GET("/orders/:id", h.GetOrder)
		authed.PUT("/orders/:id/status", h.UpdateOrderStatus)
		authed.GET("/orders/:id/history", h.OrderHistory)

		authed.POST("/upload", h.Upload)
		authed.POST("/mpesa", h.MpesaPay)
		authed.POST("/stripe", h.StripePay)
	}

	// ── Restaurant management (owner or admin) ─────────────────────
	manage := r.Group("/api")
	manage.Use(middleware.AuthRequired(tokens), middleware.RoleRequired(owner, admin))
	{
		manage.PUT("/restaurants/:id", h.UpdateRestaurant)
		manage.POST("/restaurants/:id/meals", h.CreateMeal)
		manage.POST("/meals", h.CreateMeal)
		manage.PUT("/updatemeals/:id", h.UpdateMeal)
		manage.DELETE("/meals/:id", h.DeleteMeal)
		manage.POST("/categories", h.CreateCategory)

		manage.GET("/restaurants/:id/orders", h.RestaurantOrders)
		manage.GET("/processedorders/processed", h.ProcessedOrders)

		manage.POST("/delivery-persons", h.CreateDeliveryPerson)
		manage.GET("/restaurants/:id/delivery-persons", h.RestaurantDeliveryPersons)
	}

	// ── Delivery person profile ────────────────────────────────────
	dispatch := r.Group("/api/delivery-persons")
	dispatch.Use(middleware.AuthRequired(tokens), middleware.RoleRequired(courier, owner, admin))
	{
		dispatch.GET("/:id", h.GetDeliveryPerson)
		dispatch.PUT("/:id", h.UpdateDeliveryPerson)
		dispatch.PUT("/:id/password", h.UpdateDeliveryPassword)
		dispatch.GET("/:id/orders", h.DeliveryPersonOrders)
	}

	// ── Admin routes ───────────────────────────────────────────────
	adm := r.Group("/api")
	adm.Use(middleware.AuthRequired(tokens), middleware.RoleRequired(admin))
	{
		adm.POST("/restaurants", h.AddRestaurant)
		adm.DELETE("/restaurants/:id", h.DeleteRestaurant)

		adm.POST("/admin/addRestaurant", h.AddRestaurant)
		adm.GET("/admin/users", h.AdminUsers)
		adm.PUT("/admin/users/:id/disable", h.DisableUser)
		adm.PUT("/admin/users/:id/enable", h.EnableUser)
		adm.GET("/admin/orders", h.AdminOrders)
		adm.GET("/admin/orders/export", h.ExportOrders)
		adm.PUT("/admin/orders/:id/status", h.ForceOrderStatus)
	}
}
