package main

import (
	"context"

	"github.com/meeplevault/catalog/internal/app"
	"github.com/meeplevault/catalog/internal/authz"
	"github.com/meeplevault/catalog/internal/cache"
	"github.com/meeplevault/catalog/internal/config"
	"github.com/meeplevault/catalog/internal/db"
	"github.com/meeplevault/catalog/internal/history"
	"github.com/meeplevault/catalog/internal/httpapi"
	"github.com/meeplevault/catalog/internal/logger"
	"github.com/meeplevault/catalog/internal/search"
	"github.com/meeplevault/catalog/internal/service/account"
	"github.com/meeplevault/catalog/internal/service/category"
	"github.com/meeplevault/catalog/internal/service/game"
	"github.com/meeplevault/catalog/internal/service/mechanic"
	"github.com/meeplevault/catalog/internal/service/rule"
	"github.com/meeplevault/catalog/internal/service/video"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.New(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}
	defer redisCache.Close()

	// Init search index
	index, err := search.Open(cfg.Search.IndexPath)
	if err != nil {
		log.Error("failed to open search index", "err", err)
		return
	}
	defer index.Close()

	appCtx := app.New(database, redisCache, index, history.NewStore(database), log)

	// Ownership fallbacks for the access checker
	owners := db.NewOwnerReader(database)
	checker := authz.NewChecker(redisCache, log)
	checker.RegisterOwnerLookup("game", owners.Game)
	checker.RegisterOwnerLookup("category", owners.Category)
	checker.RegisterOwnerLookup("mechanic", owners.Mechanic)
	checker.RegisterOwnerLookup("rule", owners.Rule)
	checker.RegisterOwnerLookup("video", owners.Video)

	categorySvc := category.NewService(appCtx, checker)
	gameSvc := game.NewService(appCtx, checker)
	mechanicSvc := mechanic.NewService(appCtx, checker)
	ruleSvc := rule.NewService(appCtx, checker)
	videoSvc := video.NewService(appCtx, checker)
	accountSvc := account.NewService(appCtx)

	if cfg.App.Env == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
		if n, err := categorySvc.Reindex(context.Background()); err != nil {
			log.Error("failed to rebuild search index", "err", err)
		} else {
			log.Info("rebuilt search index", "documents", n)
		}
	}

	tokens := httpapi.NewTokenIssuer(cfg.JWT)
	router := httpapi.NewRouter(httpapi.Handlers{
		Account:  httpapi.NewAccountHandler(accountSvc, tokens),
		Category: httpapi.NewCategoryHandler(categorySvc),
		Game:     httpapi.NewGameHandler(gameSvc),
		Mechanic: httpapi.NewMechanicHandler(mechanicSvc),
		Rule:     httpapi.NewRuleHandler(ruleSvc),
		Video:    httpapi.NewVideoHandler(videoSvc),
	}, tokens)

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := router.Run(addr); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
