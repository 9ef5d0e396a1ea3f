package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	uuid "github.com/twinj/uuid"

	"brainbox/controllers"
	"brainbox/models"
	"brainbox/session"
	"brainbox/source"
	"brainbox/utils"
)

// corsMiddleware CORS for * origins, allowing:
// - PUT, GET, POST, PATCH and DELETE methods
// - Origin and Authorization headers
// - Credentials share
// - Preflight requests cached for 12 hours
// TODO: Read the allowed origins from the config file once the editor is served from its own domain.
func corsMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"PUT", "GET", "POST", "PATCH", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

// requestIDMiddleware Generate a UUID and attach it to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		_uuid := uuid.NewV4()
		c.Writer.Header().Set("X-Request-Id", _uuid.String())
		c.Next()
	}
}

func main() {
	log.Info("Starting BrainBox...")

	configPath, debugMode, err := utils.ParseFlags()
	if err != nil {
		log.Fatal(err)
	}
	config, err := utils.NewConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if debugMode {
		log.SetLevel(log.DebugLevel)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := models.ConnectDataBase(config.Sqlite.Filename)
	if err != nil {
		log.Fatal(err)
	}

	clock := clockwork.NewRealClock()
	cache := session.NewCache(clock, config.Session.IdleTimeout, config.Session.CleanupInterval)
	env := &controllers.SessionEnv{
		Cache:  cache,
		Source: source.NewDatabase(db),
		Stores: session.NewStores(models.NewSlotStorage(db), config.Session.StorageSlot, config.Session.Version),
		Config: config,
		Clock:  clock,
	}

	r := gin.Default()
	r.Use(corsMiddleware())
	r.Use(requestIDMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	controllers.RegisterRoutes(r, db, env)

	addr := fmt.Sprintf(":%s", config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for SIGINT or SIGTERM to shut down gracefully
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	// Open sessions record their view like a closing page would
	log.Info("Closing open sessions...")
	cache.Close()

	log.Info("Server exiting")
}
