package main

import (
	"github.com/cppla/topicbbs/config"
	"github.com/cppla/topicbbs/controllers"
	"github.com/cppla/topicbbs/routes"
	"github.com/cppla/topicbbs/services"
	"github.com/cppla/topicbbs/store"
	"github.com/cppla/topicbbs/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db, err := config.InitDatabase(cfg, store.Migrate)
	if err != nil {
		utils.Sugar.Fatalf("database init failed: %v", err)
	}

	rc := utils.NewRedis(cfg)
	cache := utils.NewCache(rc)
	blacklist := utils.NewTokenBlacklist(rc)
	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	posts := store.NewPostStore(db)
	lifecycle := services.NewLifecycle(posts, nil)

	r := routes.SetupRouter(cfg, routes.Deps{
		DB:      db,
		Auth:    controllers.NewAuthController(services.NewAuthService(store.NewUserStore(db), tokens, blacklist)),
		Posts:   controllers.NewPostController(services.NewPostService(posts, lifecycle, cache), services.NewTopicService(posts, lifecycle, cache, cfg.CacheTTL)),
		Tokens:  tokens,
		Revoked: blacklist,
	})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
