package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/Dan9191/notes-service/internal/config"
	"github.com/Dan9191/notes-service/internal/handler"
	"github.com/Dan9191/notes-service/internal/middleware"
	"github.com/Dan9191/notes-service/internal/repository"
	"github.com/Dan9191/notes-service/internal/service"
	"github.com/Dan9191/notes-service/internal/token"
	"github.com/Dan9191/notes-service/internal/utils/email"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	codec, err := token.NewCodec([]byte(cfg.JWTSecret), cfg.JWTAlgorithm)
	if err != nil {
		logger.Fatalf("Failed to create token codec: %v", err)
	}
	var mailer *email.Sender
	if cfg.SMTPHost != "" {
		mailer = email.NewSender(cfg, logger)
	}
	svc := service.NewService(repo, codec, mailer, logger, cfg.TokenTTL)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"message": "Welcome to Notes Service"})
	}).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	// Public routes
	api.HandleFunc("/auth/signup", h.Signup).Methods("POST")
	api.HandleFunc("/auth/login", h.Login).Methods("POST")
	// Protected routes
	notes := api.PathPrefix("/notes").Subrouter()
	notes.Use(middleware.Auth(codec, repo, logger))
	notes.HandleFunc("", h.ListNotes).Methods("GET")
	notes.HandleFunc("/", h.ListNotes).Methods("GET")
	notes.HandleFunc("", h.CreateNote).Methods("POST")
	notes.HandleFunc("/", h.CreateNote).Methods("POST")
	notes.HandleFunc("/{id:[0-9]+}", h.GetNote).Methods("GET")
	notes.HandleFunc("/{id:[0-9]+}", h.UpdateNote).Methods("PUT")
	notes.HandleFunc("/{id:[0-9]+}", h.DeleteNote).Methods("DELETE")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
