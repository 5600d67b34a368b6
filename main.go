package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	apihttp "fleetwatch/internal/api/http"
	archiveapp "fleetwatch/internal/archive/application"
	archive "fleetwatch/internal/archive/domain"
	archivemem "fleetwatch/internal/archive/infrastructure/memory"
	archiverepo "fleetwatch/internal/archive/infrastructure/postgres"
	archives3 "fleetwatch/internal/archive/infrastructure/s3"
	archivehttp "fleetwatch/internal/archive/interfaces/http"
	"fleetwatch/internal/audit"
	"fleetwatch/internal/auth"
	"fleetwatch/internal/cache"
	fleetapp "fleetwatch/internal/fleet/application"
	fleet "fleetwatch/internal/fleet/domain"
	fleetrepo "fleetwatch/internal/fleet/infrastructure/postgres"
	fleethttp "fleetwatch/internal/fleet/interfaces/http"
	"fleetwatch/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	var cacheClient *cache.Client
	if cfg.RedisAddr != "" {
		cacheClient = cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := cacheClient.Ping(ctx); err != nil {
			logger.Printf("redis unavailable, caching disabled: %v", err)
			cacheClient = nil
		}
		cancel()
	}

	deviceRepo := fleetrepo.NewDeviceRepository(db)
	deviceStore := fleetapp.NewCachedDeviceStore(deviceRepo, cacheClient, cfg.DeviceCacheTTL, logger)
	moduleRepo := fleetrepo.NewModuleRepository(db)
	eventRepo := fleetrepo.NewEventRepository(db)
	archiveRepo := archiverepo.NewArchiveRepository(db)

	associations, err := fleetapp.NewAssociationService(db, logger)
	if err != nil {
		logger.Fatalf("association service error: %v", err)
	}

	storageCfg, err := archiveapp.LoadStorageConfig()
	if err != nil {
		logger.Fatalf("storage config error: %v", err)
	}
	var blobStorage archive.BlobStorage
	switch storageCfg.Backend {
	case "memory":
		blobStorage = archivemem.NewStorage()
		logger.Printf("using in-memory blob storage")
	default:
		blobStorage, err = archives3.NewStorage(archives3.Config{
			Endpoint:   storageCfg.Endpoint,
			Region:     storageCfg.Region,
			AccessKey:  storageCfg.AccessKey,
			SecretKey:  storageCfg.SecretKey,
			Bucket:     storageCfg.Bucket,
			LinkExpiry: storageCfg.LinkExpiry,
		})
		if err != nil {
			logger.Fatalf("s3 storage error: %v", err)
		}
	}

	archiveService, err := archiveapp.NewService(archiveRepo, blobStorage, logger)
	if err != nil {
		logger.Fatalf("archive service error: %v", err)
	}
	archiveStore, err := archiveapp.NewStore(archiveRepo, deviceStore)
	if err != nil {
		logger.Fatalf("archive store error: %v", err)
	}

	resourceAudit := func(resourceType string) apihttp.AuditFunc {
		if auditRepo == nil {
			return nil
		}
		return func(r *http.Request, action, resourceID string) {
			_ = auditRepo.Log(r.Context(), audit.Entry{
				Actor:        auth.SubjectFromContext(r.Context()),
				Role:         string(auth.RoleFromContext(r.Context())),
				Action:       resourceType + "." + action,
				ResourceType: resourceType,
				ResourceID:   resourceID,
				IP:           audit.ClientIP(r),
				UserAgent:    r.UserAgent(),
			})
		}
	}

	deviceResource := apihttp.NewResource[fleet.Device, fleet.NewDevice, fleet.DevicePatch](
		"/api/v1/devices/", deviceStore, fleethttp.StatusOf, resourceAudit("device"))
	moduleResource := apihttp.NewResource[fleet.AnalyticsModule, fleet.NewAnalyticsModule, fleet.AnalyticsModulePatch](
		"/api/v1/modules/", moduleRepo, fleethttp.StatusOf, resourceAudit("module"))
	eventResource := apihttp.NewResource[fleet.ModuleEvent, fleet.NewModuleEvent, fleet.ModuleEventPatch](
		"/api/v1/events/", eventRepo, fleethttp.StatusOf, resourceAudit("event"))
	archiveResource := apihttp.NewResource[archive.FileArchive, archive.NewFileArchive, archive.FileArchivePatch](
		"/api/v1/archive/", archiveStore, archivehttp.StatusOf, resourceAudit("archive"))

	deviceHandler, err := fleethttp.NewDeviceHandler(deviceResource, associations, auditRepo)
	if err != nil {
		logger.Fatalf("device handler error: %v", err)
	}
	eventHandler, err := fleethttp.NewEventHandler(eventResource, eventRepo)
	if err != nil {
		logger.Fatalf("event handler error: %v", err)
	}
	archiveHandler, err := archivehttp.NewHandler(archiveResource, archiveService, auditRepo)
	if err != nil {
		logger.Fatalf("archive handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/devices", deviceHandler)
	mux.Handle("/api/v1/devices/", deviceHandler)
	mux.Handle("/api/v1/modules", moduleResource)
	mux.Handle("/api/v1/modules/", moduleResource)
	mux.Handle("/api/v1/events", eventHandler)
	mux.Handle("/api/v1/events/", eventHandler)
	mux.Handle("/api/v1/archive", archiveHandler)
	mux.Handle("/api/v1/archive/", archiveHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL    string
	HTTPAddr       string
	JWTSecret      string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DeviceCacheTTL time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:    getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:       getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:      getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		RedisAddr:      getenvDefault("REDIS_ADDR", ""),
		RedisPassword:  getenvDefault("REDIS_PASSWORD", ""),
		RedisDB:        getenvIntDefault("REDIS_DB", 0),
		DeviceCacheTTL: getenvDuration("DEVICE_CACHE_TTL", 30*time.Second),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		duration := time.Since(start)
		metrics.ObserveHTTPRequest(r.Method, strconv.Itoa(resp.status), duration)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, duration)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
