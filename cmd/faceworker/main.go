// Command faceworker runs the face-recognition video pipeline: RTSP
// ingestion, detection, tracking, and forwarding to an external
// face-recognition service. Grounded on the teacher's main.go: environment-
// driven configuration with a .env overlay, sequential log.Println-narrated
// startup, and a gin-style graceful shutdown — generalized here to the
// multi-camera pipeline's own lifecycle via internal/orchestrator.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"faceworker/internal/camerareg"
	"faceworker/internal/config"
	"faceworker/internal/domain"
	"faceworker/internal/findface"
	"faceworker/internal/orchestrator"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the pipeline configuration file")
	adminAddr := flag.String("admin-addr", "", "override the admin HTTP listen address")
	envPath := flag.String("env", ".env", "path to an optional .env file")
	flag.Parse()

	if err := godotenv.Load(*envPath); err != nil && !os.IsNotExist(err) {
		log.Printf("faceworker: warning: failed to load %s: %v", *envPath, err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("faceworker: config error: %v", err)
		return 1
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if baseURL := os.Getenv("FINDFACE_URL"); baseURL != "" {
		cfg.Findface.BaseURL = baseURL
	}
	if user := os.Getenv("FINDFACE_USER"); user != "" {
		cfg.Findface.User = user
	}
	if pass := os.Getenv("FINDFACE_PASSWORD"); pass != "" {
		cfg.Findface.Password = pass
	}
	if uuid := os.Getenv("FINDFACE_UUID"); uuid != "" {
		cfg.Findface.UUID = uuid
	}

	addr := cfg.Admin.Addr
	if *adminAddr != "" {
		addr = *adminAddr
	}

	log.Println("faceworker: connecting to camera registry...")
	cameraReg, err := camerareg.Open(cfg.DatabaseURL)
	if err != nil {
		log.Printf("faceworker: startup failure: %v", err)
		return 2
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStartup()

	log.Println("faceworker: authenticating with face-recognition service...")
	ffClient := findface.New(findface.Config{
		BaseURL:        cfg.Findface.BaseURL,
		MaxConnections: cfg.Findface.MaxConnections,
		Timeout:        cfg.FindfaceTimeout(),
	})
	if err := ffClient.Login(startupCtx, cfg.Findface.User, cfg.Findface.Password, cfg.Findface.UUID); err != nil {
		log.Printf("faceworker: startup failure: findface login: %v", err)
		cameraReg.Close()
		return 2
	}

	orch, err := orchestrator.New(cfg, orchestrator.Dependencies{
		CameraRegistry: cameraReg,
		FindfaceClient: ffClient,
		CascadePath:    cfg.Detector.CascadePath,
		AdminAddr:      addr,
		AuditBrokers:   cfg.Audit.Brokers,
	})
	if err != nil {
		log.Printf("faceworker: startup failure: %v", err)
		cameraReg.Close()
		return 2
	}

	log.Println("faceworker: enumerating cameras...")
	if err := orch.LoadCameras(startupCtx); err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			log.Printf("faceworker: startup failure: %v", cfgErr)
		} else {
			log.Printf("faceworker: startup failure: %v", err)
		}
		return 2
	}

	ctx := orchestrator.WaitForSignal(context.Background())

	log.Println("faceworker: pipeline started")
	if err := orch.Run(ctx); err != nil {
		log.Printf("faceworker: run error: %v", err)
		return 1
	}

	if ctx.Err() != nil {
		return 130
	}
	return 0
}
