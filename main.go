package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"revcast/db"
	qhttp "revcast/http"
	"revcast/logging"
	"revcast/ml"
	"revcast/monitoring"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		TimeoutSeconds int      `yaml:"timeout_seconds"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Artifacts struct {
		Model    string `yaml:"model"`
		Features string `yaml:"features"`
		Means    string `yaml:"means"`
		Watch    bool   `yaml:"watch"`
	} `yaml:"artifacts"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log logging.Config `yaml:"log"`
}

func main() {
	// 1. Load config
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 2. Load the model artifacts. Nothing else starts without them.
	store, err := ml.NewArtifactStore(ml.ArtifactPaths{
		Model:    config.Artifacts.Model,
		Features: config.Artifacts.Features,
		Means:    config.Artifacts.Means,
	})
	if err != nil {
		logger.Fatal("failed to load model artifacts", zap.Error(err))
	}
	snapshot := store.Snapshot()
	logger.Info("model and features loaded",
		zap.Int("features", len(snapshot.Features)),
		zap.Int("means", len(snapshot.Means)))

	// 3. Initialize the prediction history database
	if err := db.InitDB(config.Database.Path); err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	logger.Info("database initialized", zap.String("path", config.Database.Path))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Artifacts.Watch {
		if err := ml.WatchArtifacts(ctx, store, logger); err != nil {
			logger.Fatal("failed to watch artifacts", zap.Error(err))
		}
	}

	// 4. Start the live feed hub and HTTP server
	hub := qhttp.NewHub(logger)
	go hub.Run()

	tracker := monitoring.NewPredictionTracker()

	app, err := qhttp.NewApp(store, hub, tracker, logger)
	if err != nil {
		logger.Fatal("failed to build app", zap.Error(err))
	}

	serverConfig := qhttp.DefaultServerConfig()
	if config.Http.Port > 0 {
		serverConfig.Port = config.Http.Port
	}
	if config.Http.TimeoutSeconds > 0 {
		serverConfig.Timeout = time.Duration(config.Http.TimeoutSeconds) * time.Second
	}
	if len(config.Http.AllowedOrigins) > 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}

	server := qhttp.NewServer(serverConfig, app, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	hub.Stop()
	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	logger.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}
	return config, nil
}

func defaultConfig() *Config {
	config := &Config{}
	config.Http.Port = 8080
	config.Http.TimeoutSeconds = 30
	config.Artifacts.Model = "./artifacts/model.json"
	config.Artifacts.Features = "./artifacts/features.json"
	config.Artifacts.Means = "./artifacts/means.json"
	config.Artifacts.Watch = true
	config.Database.Path = "./data/revcast.db"
	return config
}
