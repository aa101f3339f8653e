package main

import (
	"log"
	"net/http"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/haydent/matchday/internal/api"
	"github.com/haydent/matchday/internal/auth"
	"github.com/haydent/matchday/internal/config"
	"github.com/haydent/matchday/internal/github"
	"github.com/haydent/matchday/internal/sync"
)

type serverConfig struct {
	ListenAddress string `env:"MATCHDAY_LISTEN_ADDRESS,default=:8080"`
	ConfigPath    string `env:"MATCHDAY_CONFIG_PATH,default=matchday.json"`
	AuthUser      string `env:"MATCHDAY_AUTH_USER"`
	AuthPass      string `env:"MATCHDAY_AUTH_PASS"`

	// Optional pre-seeded connection; the /connect endpoint can replace it.
	GitOwner  string `env:"MATCHDAY_GIT_OWNER"`
	GitRepo   string `env:"MATCHDAY_GIT_REPO"`
	GitBranch string `env:"MATCHDAY_GIT_BRANCH"`
	GitToken  string `env:"MATCHDAY_GIT_TOKEN"`
}

func main() {
	_ = godotenv.Load(".env")
	var cfg serverConfig
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		log.Fatalf("[Matchday] config: %v", err)
	}

	manager := config.NewManager(config.NewFileStore(cfg.ConfigPath))
	if !manager.Load() && cfg.GitOwner != "" && cfg.GitRepo != "" && cfg.GitToken != "" {
		if err := manager.Save(cfg.GitOwner, cfg.GitRepo, cfg.GitBranch, cfg.GitToken); err != nil {
			log.Fatalf("[Matchday] seed config: %v", err)
		}
		log.Printf("[Matchday] connected to %s/%s from environment", cfg.GitOwner, cfg.GitRepo)
	}

	status := &sync.Recorder{}
	coordinator := sync.NewCoordinator(manager, github.NewClient(), sync.Multi(status, sync.LogReporter{}))

	var middleware func(http.Handler) http.Handler
	if cfg.AuthUser != "" && cfg.AuthPass != "" {
		middleware = auth.BasicAuth(cfg.AuthUser, cfg.AuthPass)
	}
	handler := api.NewHandler(manager, coordinator, status)
	router := api.NewRouter(handler, middleware)

	log.Printf("[Matchday] server listening on %s", cfg.ListenAddress)
	log.Fatal(http.ListenAndServe(cfg.ListenAddress, router))
}
