package main

import (
	"net/http"

	"github.com/joho/godotenv"

	"stem-chat/internal/api/handlers"
	"stem-chat/internal/app"
	"stem-chat/internal/auth"
	"stem-chat/internal/config"
	"stem-chat/internal/logger"
	"stem-chat/internal/repository/postgres"
	"stem-chat/internal/service/llm"
	"stem-chat/internal/tools"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "X-Conversation-Id")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func main() {
	// .env is optional outside of local development
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("No .env file found, using environment")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	database, err := postgres.NewPostgresDB(cfg.Database)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	if err := postgres.SeedDemoUser(database); err != nil {
		logger.Log.WithError(err).Fatal("Failed to seed demo user")
	}

	registry, err := tools.DefaultRegistry()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to build tool registry")
	}

	gateway := llm.NewGateway(cfg.LLM, cfg.Models)
	appConfig := app.NewConfig(database, cfg, gateway, registry)

	authService := auth.New(database, string(cfg.Auth.JWTSecret))
	chatHandler := handlers.NewChatHandlers(appConfig)

	mux := http.NewServeMux()

	// CORS preflight handler for OPTIONS requests
	corsHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "X-Conversation-Id")
		w.WriteHeader(http.StatusOK)
	}

	// Public routes
	mux.HandleFunc("POST /api/login", enableCORS(authService.LoginHandler))
	mux.HandleFunc("OPTIONS /api/login", corsHandler)
	mux.HandleFunc("POST /api/register", enableCORS(authService.RegisterHandler))
	mux.HandleFunc("OPTIONS /api/register", corsHandler)
	mux.HandleFunc("GET /api/health", enableCORS(chatHandler.HealthHandler))
	mux.HandleFunc("OPTIONS /api/health", corsHandler)
	mux.HandleFunc("GET /api/models", enableCORS(chatHandler.GetModelsHandler))
	mux.HandleFunc("OPTIONS /api/models", corsHandler)
	mux.HandleFunc("GET /api/visualizations/{id}", enableCORS(chatHandler.GetVisualizationHandler))
	mux.HandleFunc("OPTIONS /api/visualizations/{id}", corsHandler)

	// Chat streams for anonymous users too; persistence needs a token
	mux.HandleFunc("POST /api/chat", enableCORS(authService.OptionalMiddleware(chatHandler.ChatStreamHandler)))
	mux.HandleFunc("OPTIONS /api/chat", corsHandler)

	// Protected routes
	mux.HandleFunc("GET /api/conversations", enableCORS(authService.Middleware(chatHandler.GetConversationsHandler)))
	mux.HandleFunc("OPTIONS /api/conversations", corsHandler)
	mux.HandleFunc("GET /api/conversations/{id}/messages", enableCORS(authService.Middleware(chatHandler.GetConversationMessagesHandler)))
	mux.HandleFunc("OPTIONS /api/conversations/{id}/messages", corsHandler)
	mux.HandleFunc("DELETE /api/conversations/{id}", enableCORS(authService.Middleware(chatHandler.DeleteConversationHandler)))
	mux.HandleFunc("POST /api/conversations/{id}/archive", enableCORS(authService.Middleware(chatHandler.ArchiveConversationHandler)))
	mux.HandleFunc("OPTIONS /api/conversations/{id}", corsHandler)
	mux.HandleFunc("OPTIONS /api/conversations/{id}/archive", corsHandler)

	logger.Log.WithField("port", cfg.Server.Port).Info("Server starting")

	if err := http.ListenAndServe(":"+cfg.Server.Port, mux); err != nil {
		logger.Log.WithError(err).Fatal("Server failed to start")
	}
}
