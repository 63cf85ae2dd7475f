// Package main, amora realtime backend'inin giriş noktasıdır.
//
// Bu dosyanın görevi — Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (embedded migration'lar)
//  3. Repository'leri oluştur
//  4. WebSocket registry'lerini kur (chat/bildirim + sinyal AYRI)
//  5. Service'leri oluştur
//  6. Handler'ları oluştur, route'ları bağla
//  7. CORS, HTTP server, graceful shutdown
//
// Global değişken YOK — her şey burada oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/eylulcan/amora/config"
	"github.com/eylulcan/amora/database"
	"github.com/eylulcan/amora/handlers"
	"github.com/eylulcan/amora/middleware"
	"github.com/eylulcan/amora/pkg/ratelimit"
	"github.com/eylulcan/amora/repository"
	"github.com/eylulcan/amora/services"
	"github.com/eylulcan/amora/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] amora server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d)", cfg.Server.Port)

	// ─── 2. Database ───
	migrations, err := fs.Sub(database.EmbeddedMigrations, "migrations")
	if err != nil {
		log.Fatalf("[main] failed to open embedded migrations: %v", err)
	}
	db, err := database.New(cfg.Database.Path, migrations)
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	messageRepo := repository.NewSQLiteMessageRepo(db.Conn)
	notificationRepo := repository.NewSQLiteNotificationRepo(db.Conn)
	userRepo := repository.NewSQLiteUserRepo(db.Conn)
	blockRepo := repository.NewSQLiteBlockRepo(db.Conn)
	mediaRepo := repository.NewSQLiteMediaRepo(db.Conn)

	// ─── 4. WebSocket Registry'leri ───
	//
	// İki AYRI registry: sohbet ve bildirim kanalları aynı registry'yi
	// paylaşır (ikisi de "kullanıcı online mı" sorusunun aynı cevabını
	// ister), arama sinyalleşmesi kendi registry'sini kullanır —
	// sohbet bağlantısı olan kullanıcı aranabilir değildir.
	mainRegistry := ws.NewRegistry()
	callRegistry := ws.NewRegistry()
	dispatcher := ws.NewDispatcher(mainRegistry)

	// ─── 5. Service Layer ───
	tokenValidator := services.NewJWTValidator([]byte(cfg.JWT.Secret))

	notificationService := services.NewNotificationService(notificationRepo, userRepo, dispatcher)

	var aiClient services.AIClient
	if cfg.AI.BaseURL != "" {
		aiClient = services.NewHTTPAIClient(cfg.AI.BaseURL, cfg.AI.APIKey)
	}

	msgLimiter := ratelimit.NewMessageRateLimiter(
		cfg.Limits.MessagesPerWindow,
		time.Duration(cfg.Limits.WindowSeconds)*time.Second,
		time.Duration(cfg.Limits.CooldownSeconds)*time.Second,
	)

	chatService := services.NewChatService(
		messageRepo, blockRepo, mediaRepo,
		dispatcher, notificationService, aiClient,
		msgLimiter, cfg.Media.BaseURL,
	)

	callManager := services.NewCallSignalManager(callRegistry)
	callService := services.NewCallService(callManager, blockRepo)

	// Heartbeat zaman aşımı denetimi — sessiz kopuşlarda aramayı kapatır.
	heartbeatTimeout := time.Duration(cfg.RTC.HeartbeatTimeout) * time.Second
	reaperDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(heartbeatTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				callService.ExpireStale(heartbeatTimeout)
			case <-reaperDone:
				return
			}
		}
	}()

	// ─── 6. Handlers + Routes ───
	authMiddleware := middleware.NewAuthMiddleware(tokenValidator)

	chatWS := handlers.NewChatWSHandler(mainRegistry, chatService, tokenValidator)
	notificationWS := handlers.NewNotificationWSHandler(mainRegistry, notificationService, tokenValidator)
	callWS := handlers.NewCallWSHandler(callRegistry, callService, callManager, tokenValidator, cfg.RTC.ICEServers)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("GET /ws/chat", chatWS.HandleConnection)
	mux.HandleFunc("GET /ws/notifications", notificationWS.HandleConnection)
	mux.HandleFunc("GET /ws/call", callWS.HandleConnection)

	mux.Handle("GET /api/notifications", authMiddleware.Require(
		http.HandlerFunc(notificationHandler.List)))
	mux.Handle("POST /api/notifications/read", authMiddleware.Require(
		http.HandlerFunc(notificationHandler.MarkRead)))

	// ─── 7. CORS + Server + Graceful Shutdown ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     corsHandler.Handler(mux),
		ReadTimeout: 0, // WS bağlantıları uzun ömürlü — global read timeout olmaz
		IdleTimeout: 90 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] server error: %v", err)
		}
	}()

	<-done
	log.Println("[main] shutting down...")

	close(reaperDone)

	// Önce WS bağlantıları kapanır, sonra HTTP server mevcut
	// request'lerin bitmesini bekleyerek durur.
	mainRegistry.Shutdown()
	callRegistry.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] server stopped gracefully")
}
