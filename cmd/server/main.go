package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"minishop_back_end/internal/broadcast"
	"minishop_back_end/internal/catalog"
	"minishop_back_end/internal/config"
	"minishop_back_end/internal/database"
	"minishop_back_end/internal/handlers"
	"minishop_back_end/internal/notifications"
	"minishop_back_end/internal/routes"
	"minishop_back_end/internal/services"
	"minishop_back_end/internal/shop"
	"minishop_back_end/internal/store"
)

func main() {
	config.Load()
	database.ConnectDatabases()
	defer database.CloseMongo()

	// Stores Mongo
	catalogStore := store.NewCatalogStore(database.MongoDB)
	cartRepo := store.NewMongoCartRepository(database.MongoDB)
	orderRepo := store.NewMongoOrderRepository(database.MongoDB)
	customerStore := store.NewCustomerStore(database.MongoDB)
	statusStore := store.NewStatusStore(database.MongoDB)
	ledger := store.NewMongoVariantLedger(database.MongoDB)
	versions := store.NewCatalogVersions(database.MongoDB)

	receipts := services.NewReceiptStore(database.MinIO, receiptBucket())

	// Notifications : Telegram toujours, e-mail si SMTP configuré
	telegram := notifications.NewTelegramNotifier(config.BotToken(), config.AdminIDs(), receipts)
	var notifier shop.Notifier = telegram
	if mailer := notifications.NewMailNotifierFromEnv(); mailer != nil {
		log.Println("✅ Copie e-mail des commandes activée")
		notifier = notifications.Fanout{telegram, mailer}
	}

	cartService := &shop.CartService{
		Carts:    cartRepo,
		Products: catalogStore,
		Ledger:   ledger,
	}
	orderService := &shop.OrderService{
		Orders:   orderRepo,
		Carts:    cartService,
		CartRepo: cartRepo,
		Products: catalogStore,
		Ledger:   ledger,
		Receipts: receipts,
		Notifier: notifier,
	}

	catalogCache := &catalog.Cache{
		Loader:   catalogStore,
		Versions: versions,
		Redis:    database.Redis,
		TTL:      time.Duration(config.CatalogCacheTTLSeconds()) * time.Second,
	}

	hub := broadcast.NewHub()

	// Purge différée des commandes supprimées
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	orderService.StartPurgeSweep(sweepCtx)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
	}))

	routes.RegisterRoutes(r, routes.Handlers{
		Auth:      &handlers.AuthHandler{Customers: customerStore},
		Cart:      &handlers.CartHandler{Carts: cartService},
		Orders:    &handlers.OrderHandler{Orders: orderService},
		Catalog:   &handlers.CatalogHandler{Cache: catalogCache},
		Store:     &handlers.StoreHandler{Status: statusStore, Hub: hub},
		Webhook:   &handlers.WebhookHandler{Orders: orderService, Notifier: telegram},
		Payment:   &handlers.PaymentHandler{},
		AdmOrders: &handlers.AdminOrderHandler{Orders: orderService},
		AdmCat:    &handlers.AdminCatalogHandler{Catalog: catalogStore, Cache: catalogCache},
		Broadcast: &handlers.BroadcastHandler{Customers: customerStore, Notifier: telegram},
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("🚀 Serveur boutique lancé sur le port", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("❌ Serveur arrêté :", err)
	}
}

func receiptBucket() string {
	if bucket := os.Getenv("MINIO_BUCKET"); bucket != "" {
		return bucket
	}
	return "receipts"
}
