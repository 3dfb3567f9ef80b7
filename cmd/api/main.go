package main

import (
	"fmt"
	"log"
	"os"

	"ethics-review-api/config"
	"ethics-review-api/controllers"
	"ethics-review-api/middleware"
	"ethics-review-api/routes"
	"ethics-review-api/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gopkg.in/yaml.v3"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	logFile, _ := config.InitLogging()
	if logFile != nil {
		defer logFile.Close()
	}

	settings := config.LoadSettings()
	if settings.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	store, directory, err := openStores(settings)
	if err != nil {
		log.Fatal(err)
	}

	files, err := services.NewLocalFileStore(settings.UploadPath)
	if err != nil {
		log.Fatal(err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []services.WorkflowOption{
		services.WithFileStore(files),
		services.WithMetrics(services.NewWorkflowMetrics(registry)),
		services.WithMaxUploadBytes(settings.MaxUploadBytes),
	}
	if settings.NotifyEmail {
		mail := config.MailConfigFromEnv()
		if mail.Configured() {
			opts = append(opts, services.WithNotifier(services.NewMailNotifier(directory, mail.Send)))
			log.Printf("Email notifications enabled via %s", mail.Host)
		} else {
			log.Println("Warning: NOTIFY_EMAIL=1 but SMTP_HOST/SMTP_FROM are not set; notifications disabled")
		}
	}

	workflow := services.NewWorkflowService(store, directory, opts...)
	dashboard := services.NewDashboardService(store, directory)
	handler := controllers.NewHandler(workflow, dashboard, directory)

	// Set Gin mode
	if settings.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = config.LogWriter

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORSMiddleware(settings.AllowedOrigins))
	router.MaxMultipartMemory = 8 << 20

	routes.SetupRoutes(router, handler, routes.Options{
		Directory: directory,
		JWTSecret: settings.JWTSecret,
		Gatherer:  registry,
	})

	log.Printf("🚀 Server starting on port %s (store=%s)", settings.Port, settings.StoreDriver)
	if settings.GinMode != "release" {
		log.Printf("🔧 Running in development mode")
	}
	if err := router.Run(":" + settings.Port); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}

func openStores(settings config.Settings) (services.ProposalStore, services.Directory, error) {
	switch settings.StoreDriver {
	case config.StoreDriverMySQL:
		db, err := config.InitDB()
		if err != nil {
			return nil, nil, err
		}
		return services.NewGormProposalStore(db), services.NewGormDirectory(db), nil

	case config.StoreDriverMemory:
		directory := services.NewStaticDirectory()
		if settings.SeedUsersFile != "" {
			if err := seedDirectory(settings.SeedUsersFile, directory); err != nil {
				return nil, nil, err
			}
		}
		log.Println("Warning: using the in-memory store; proposals are lost on restart")
		return services.NewMemoryProposalStore(), directory, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", settings.StoreDriver)
}

// seedDirectory loads the identities for the memory mode from a YAML (or JSON)
// list of {id, name, email, role} entries.
func seedDirectory(path string, directory *services.StaticDirectory) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed users: %w", err)
	}
	var identities []services.Identity
	if err := yaml.Unmarshal(data, &identities); err != nil {
		return fmt.Errorf("failed to parse seed users: %w", err)
	}
	for _, identity := range identities {
		if identity.ID == "" || !identity.Role.Valid() {
			return fmt.Errorf("seed user %q needs an id and a known role", identity.Email)
		}
		directory.Put(identity)
		log.Printf("Seeded %s %s (%s)", identity.Role, identity.Email, identity.ID)
	}
	return nil
}
