package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reelgraph/reelgraph-backend/internal/platform/envutil"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
	"github.com/reelgraph/reelgraph-backend/internal/platform/neo4jdb"
	"github.com/reelgraph/reelgraph-backend/internal/platform/redisdb"
)

type Config struct {
	Neo4j neo4jdb.Config `yaml:"neo4j"`
	Redis redisdb.Config `yaml:"redis"`

	RecsTTLSeconds    int `yaml:"recs_ttl_seconds"`
	RatingsTTLSeconds int `yaml:"ratings_ttl_seconds"`
}

func defaults() Config {
	return Config{
		Neo4j: neo4jdb.Config{
			URI:            "neo4j://127.0.0.1:7687",
			User:           "neo4j",
			Database:       "moviesprimary",
			TimeoutSeconds: 10,
			MaxPoolSize:    50,
		},
		Redis: redisdb.Config{
			Addr: "localhost:6379",
			DB:   0,
		},
		RecsTTLSeconds:    600,
		RatingsTTLSeconds: 3600,
	}
}

// Load merges, in order of increasing precedence: built-in defaults, the
// optional YAML file named by REELGRAPH_CONFIG, then environment variables.
func Load(log *logger.Logger) (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("REELGRAPH_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	cfg.Neo4j.URI = envutil.Str("NEO4J_URI", cfg.Neo4j.URI)
	cfg.Neo4j.User = envutil.Str("NEO4J_USER", cfg.Neo4j.User)
	cfg.Neo4j.Password = envutil.Str("NEO4J_PASSWORD", cfg.Neo4j.Password)
	cfg.Neo4j.Database = envutil.Str("NEO4J_DATABASE", cfg.Neo4j.Database)
	cfg.Neo4j.TimeoutSeconds = envutil.Int("NEO4J_TIMEOUT_SECONDS", cfg.Neo4j.TimeoutSeconds)
	cfg.Neo4j.MaxPoolSize = envutil.Int("NEO4J_MAX_POOL_SIZE", cfg.Neo4j.MaxPoolSize)

	cfg.Redis.Addr = envutil.Str("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)

	cfg.RecsTTLSeconds = envutil.Int("RECS_TTL_SECONDS", cfg.RecsTTLSeconds)
	cfg.RatingsTTLSeconds = envutil.Int("RATINGS_TTL_SECONDS", cfg.RatingsTTLSeconds)

	return cfg, nil
}

func (c Config) RecsTTL() time.Duration {
	return time.Duration(c.RecsTTLSeconds) * time.Second
}

func (c Config) RatingsTTL() time.Duration {
	return time.Duration(c.RatingsTTLSeconds) * time.Second
}
