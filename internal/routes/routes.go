package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/handlers"
	"minishop_back_end/internal/middleware"
)

// Handlers regroupe les handlers construits dans main — pas de globals ici,
// tout est injecté pour rester testable.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Cart      *handlers.CartHandler
	Orders    *handlers.OrderHandler
	Catalog   *handlers.CatalogHandler
	Store     *handlers.StoreHandler
	Webhook   *handlers.WebhookHandler
	Payment   *handlers.PaymentHandler
	AdmOrders *handlers.AdminOrderHandler
	AdmCat    *handlers.AdminCatalogHandler
	Broadcast *handlers.BroadcastHandler
}

func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", middleware.APIRateLimit())

	// =============================================
	// PUBLIC
	// =============================================
	api.POST("/auth/telegram", middleware.AuthRateLimit(), h.Auth.Authenticate)
	api.GET("/catalog", h.Catalog.GetCatalog)
	api.GET("/products/search", handlers.SearchProducts)
	api.GET("/payment/details", h.Payment.Details)
	api.GET("/payment/qr", h.Payment.QRCode)
	api.GET("/store/status", h.Store.GetStatus)
	api.GET("/store/status/stream", h.Store.StreamStatus)
	api.POST("/bot/webhook", h.Webhook.HandleUpdate)

	// =============================================
	// UTILISATEUR AUTHENTIFIÉ (mini-app)
	// =============================================
	user := api.Group("", middleware.AuthRequired())
	user.GET("/cart", h.Cart.GetCart)
	user.POST("/cart/items", h.Cart.AddItem)
	user.PATCH("/cart/items/:item_id", h.Cart.UpdateItem)
	user.DELETE("/cart/items/:item_id", h.Cart.RemoveItem)
	user.POST("/orders", middleware.OrderRateLimit(), h.Orders.Create)
	user.GET("/orders/last", h.Orders.LastOrder)
	user.PATCH("/orders/:id/address", h.Orders.UpdateAddress)

	// =============================================
	// ADMINISTRATION
	// =============================================
	admin := api.Group("/admin", middleware.AuthRequired(), middleware.AdminRequired())
	admin.GET("/orders", h.AdmOrders.List)
	admin.GET("/orders/:id", h.AdmOrders.Get)
	admin.PATCH("/orders/:id/status", h.AdmOrders.SetStatus)
	admin.DELETE("/orders/:id", h.AdmOrders.Delete)
	admin.GET("/orders/:id/receipt", h.AdmOrders.Receipt)
	admin.POST("/categories", h.AdmCat.CreateCategory)
	admin.PATCH("/categories/:id", h.AdmCat.UpdateCategory)
	admin.DELETE("/categories/:id", h.AdmCat.DeleteCategory)
	admin.POST("/products", h.AdmCat.CreateProduct)
	admin.PATCH("/products/:id", h.AdmCat.UpdateProduct)
	admin.DELETE("/products/:id", h.AdmCat.DeleteProduct)
	admin.PUT("/store/status", h.Store.SetStatus)
	admin.POST("/broadcast", h.Broadcast.Send)
}
