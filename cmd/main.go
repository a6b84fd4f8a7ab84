package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/reelgraph/reelgraph-backend/internal/cache"
	"github.com/reelgraph/reelgraph-backend/internal/cli"
	"github.com/reelgraph/reelgraph-backend/internal/config"
	"github.com/reelgraph/reelgraph-backend/internal/data/graph"
	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
	"github.com/reelgraph/reelgraph-backend/internal/platform/neo4jdb"
	"github.com/reelgraph/reelgraph-backend/internal/platform/redisdb"
	"github.com/reelgraph/reelgraph-backend/internal/search"
	"github.com/reelgraph/reelgraph-backend/internal/services"
)

func main() {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(log); err != nil {
		log.Error("Fatal", "error", err)
		os.Exit(1)
	}
}

// run owns the connection lifetime: both clients are acquired up front
// and released on every exit path.
func run(log *logger.Logger) error {
	ctx := context.Background()

	cfg, err := config.Load(log)
	if err != nil {
		return err
	}

	neoClient, err := neo4jdb.New(cfg.Neo4j, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := neoClient.Close(ctx); cerr != nil {
			log.Warn("Neo4j close failed", "error", cerr)
		} else {
			log.Info("Neo4j driver closed")
		}
	}()

	redisClient, err := redisdb.New(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			log.Warn("Redis close failed", "error", cerr)
		} else {
			log.Info("Redis client closed")
		}
	}()

	sessionLog := log.With("session_id", uuid.NewString())

	store := graph.NewStore(neoClient, sessionLog)
	recCache := cache.NewRecommendationCache(redisClient.RDB, store, cfg.RecsTTL(), sessionLog)
	ratingCache := cache.NewRatingSetCache(redisClient.RDB, cfg.RatingsTTL(), sessionLog)
	projection := search.NewProjection(redisClient, sessionLog)

	catalog := services.NewCatalogService(store, projection, sessionLog)
	sessions := services.NewSessionService(store, recCache, ratingCache, projection, sessionLog)
	ratings := services.NewRatingService(store, projection, ratingCache, sessionLog)

	shell := cli.New(os.Stdin, os.Stdout, sessionLog, catalog, sessions, ratings)
	shell.Run(ctx)
	return nil
}
