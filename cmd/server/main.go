package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/quizgenius/backend/internal/auth"
	"github.com/quizgenius/backend/internal/database"
	"github.com/quizgenius/backend/internal/gamification"
	"github.com/quizgenius/backend/internal/generator"
	"github.com/quizgenius/backend/internal/middleware"
	"github.com/quizgenius/backend/internal/quiz"
	"github.com/quizgenius/backend/internal/session"
	"github.com/quizgenius/backend/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// User state lives in Redis when configured, in memory otherwise
	var stores store.Factory
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		stores = store.NewRedisFactory(client)
		log.Printf("Using redis store at %s", addr)
	} else {
		stores = store.NewMemoryFactory()
		log.Println("Using in-memory store")
	}

	// Initialize services
	gen := generator.NewGenerator()
	sessions := session.NewManager()
	gamSvc := gamification.NewService()
	shares := quiz.NewShareStore(db)
	quizSvc := quiz.NewService(sessions, gen, gamSvc, stores, shares)

	// Initialize handlers
	authHandler := auth.NewHandler(db, stores)
	quizHandler := quiz.NewHandler(quizSvc, stores)
	gamHandler := gamification.NewHandler(gamSvc, stores)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/topics", quizHandler.ListTopics).Methods("GET")
	api.HandleFunc("/leaderboard/{topicId}", gamHandler.GetLeaderboard).Methods("GET")
	api.HandleFunc("/shared/{shareId}", quizHandler.GetSharedResult).Methods("GET")

	// Quiz routes work for guests; a valid token scopes state to the user
	quizzes := api.PathPrefix("/quizzes").Subrouter()
	quizzes.Use(middleware.OptionalAuth)
	quizzes.HandleFunc("/topic", quizHandler.StartFromTopic).Methods("POST")
	quizzes.HandleFunc("/document", quizHandler.StartFromDocument).Methods("POST")
	quizzes.HandleFunc("/{id}", quizHandler.GetSession).Methods("GET")
	quizzes.HandleFunc("/{id}", quizHandler.EndSession).Methods("DELETE")
	quizzes.HandleFunc("/{id}/question", quizHandler.GetCurrentQuestion).Methods("GET")
	quizzes.HandleFunc("/{id}/answer", quizHandler.SubmitAnswer).Methods("POST")
	quizzes.HandleFunc("/{id}/next", quizHandler.NextQuestion).Methods("POST")
	quizzes.HandleFunc("/{id}/complete", quizHandler.CompleteQuiz).Methods("POST")
	quizzes.HandleFunc("/{id}/share", quizHandler.ShareResult).Methods("POST")

	// Study data works for guests too (anonymous bucket)
	study := api.PathPrefix("").Subrouter()
	study.Use(middleware.OptionalAuth)
	study.HandleFunc("/history", quizHandler.GetHistory).Methods("GET")
	study.HandleFunc("/stats", quizHandler.GetStats).Methods("GET")
	study.HandleFunc("/flashcards", quizHandler.GetFlashCards).Methods("GET")
	study.HandleFunc("/flashcards", quizHandler.PutFlashCards).Methods("PUT")
	study.HandleFunc("/notes", quizHandler.GetStudyNotes).Methods("GET")
	study.HandleFunc("/notes", quizHandler.PutStudyNotes).Methods("PUT")
	study.HandleFunc("/preferences", quizHandler.GetPreferences).Methods("GET")
	study.HandleFunc("/preferences", quizHandler.PutPreferences).Methods("PUT")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/auth/profile", authHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/achievements", gamHandler.GetAchievements).Methods("GET")
	protected.HandleFunc("/streak", gamHandler.GetStreak).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
