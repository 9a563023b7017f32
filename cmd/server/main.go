package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"photobooth-kiosk/internal/camera"
	"photobooth-kiosk/internal/config"
	"photobooth-kiosk/internal/database"
	"photobooth-kiosk/internal/gemini"
	"photobooth-kiosk/internal/handlers"
	"photobooth-kiosk/internal/middleware"
	"photobooth-kiosk/internal/models"
	"photobooth-kiosk/internal/services"
	"photobooth-kiosk/internal/session"
	"photobooth-kiosk/internal/store"
	"photobooth-kiosk/internal/supabase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Local kiosk state survives restarts; the remote store's base URL is
	// cached here.
	localStore, err := database.Open(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("Failed to open local database: %v", err)
	}
	defer localStore.Close()

	storeBaseURL := cfg.StoreBaseURL
	if storeBaseURL == "" {
		cached, err := localStore.CachedStoreBaseURL()
		if err != nil {
			log.Printf("Warning: failed to read cached store base URL: %v", err)
		}
		storeBaseURL = cached
	}
	if storeBaseURL == "" {
		log.Fatal("No store base URL configured. Set STORE_BASE_URL at least once.")
	}
	if err := localStore.SaveStoreBaseURL(storeBaseURL); err != nil {
		log.Printf("Warning: failed to cache store base URL: %v", err)
	}

	storeClient := store.NewClient(storeBaseURL)

	geminiClient := gemini.NewClient(cfg.GeminiAPIBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	if !geminiClient.HasCredential() {
		log.Println("=======================================================")
		log.Println("WARNING: GEMINI_API_KEY is not set.")
		log.Println("Photo generation will fail until it is configured.")
		log.Println("=======================================================")
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	device := camera.NewStreamDevice(cfg.CameraStreamURL)
	engine := camera.NewEngine(device)

	registrar := services.NewRegistrar(storeClient, storageClient, localStore)

	// Settings are loaded at startup and re-read on every return to the
	// landing screen; a failure here falls back to defaults until the
	// store becomes reachable.
	settings := models.KioskSettings{Orientation: models.OrientationPortrait, AutoResetTime: 60}
	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if loaded, err := storeClient.LoadSettings(loadCtx); err != nil {
		log.Printf("Warning: failed to load kiosk settings: %v", err)
	} else {
		settings = *loaded
	}
	cancel()

	machine := session.New(engine, geminiClient, registrar, storeClient, settings)

	hub := handlers.NewHub()
	machine.SetNotify(hub.BroadcastEvent)
	go hub.RunPreview(context.Background(), machine, engine)

	sessionHandler := handlers.NewSessionHandler(machine)
	galleryHandler := handlers.NewGalleryHandler(machine, storeClient)
	adminHandler := handlers.NewAdminHandler(machine, storeClient, cfg.AdminJWTSecret)

	router := gin.Default()

	router.GET("/health", handlers.HealthHandler)
	router.GET("/ws/kiosk", hub.ServeWS)

	api := router.Group("/api/v1")

	api.GET("/session", sessionHandler.GetSession)
	api.POST("/session/start", sessionHandler.Start)
	api.POST("/session/concept", sessionHandler.SelectConcept)
	api.POST("/session/capture", sessionHandler.Capture)
	api.POST("/session/cancel", sessionHandler.Cancel)
	api.POST("/session/home", sessionHandler.Home)
	api.POST("/session/touch", sessionHandler.Touch)

	api.GET("/gallery", galleryHandler.OpenGallery)
	api.GET("/gallery/:token", galleryHandler.GetItem)

	api.POST("/admin/open", adminHandler.Open)
	api.POST("/admin/login", adminHandler.Login)

	admin := api.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(cfg.AdminJWTSecret))
	admin.GET("/events", adminHandler.ListEvents)
	admin.PUT("/settings", adminHandler.SaveSettings)
	admin.PUT("/concepts", adminHandler.SaveConcepts)
	admin.POST("/overlay", adminHandler.UploadOverlay)

	log.Printf("Kiosk engine starting on port %s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
