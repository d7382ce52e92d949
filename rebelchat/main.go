package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"rebelchat/rebelchat/config"
	"rebelchat/rebelchat/controllers"
	"rebelchat/rebelchat/metrics"
	"rebelchat/rebelchat/middlewares"
	"rebelchat/rebelchat/routes"
	"rebelchat/rebelchat/services/cognito"
	"rebelchat/rebelchat/services/lambda"
	"rebelchat/rebelchat/services/lex"
	"rebelchat/rebelchat/services/tokens"
	"rebelchat/rebelchat/sources"
	"rebelchat/rebelchat/sources/memstore"
	"rebelchat/rebelchat/sources/psql"
	"rebelchat/rebelchat/sources/psql/dao"
	"rebelchat/rebelchat/sources/storage"
	"rebelchat/rebelchat/utils/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)
	defer logging.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health := controllers.NewHealthController()
	var users sources.UserStore
	var chats sources.ChatStore
	if cfg.UsePostgres() {
		db, err := psql.NewDatabase(ctx, cfg)
		if err != nil {
			logging.ErrorLogger.Error("database connection error", zap.Error(err))
			os.Exit(1)
		}
		defer db.Close()
		users = dao.NewUserDAO(db.DB)
		chats = dao.NewChatMessageDAO(db.DB)
		health.AddCheck("database", db.Ping)
	} else {
		logging.AppLogger.Info("using in-memory user and chat stores")
		users = memstore.NewUserStore()
		chats = memstore.NewChatStore()
	}

	awsCfg, err := cfg.AWSConfig(ctx)
	if err != nil {
		logging.ErrorLogger.Error("aws config error", zap.Error(err))
		os.Exit(1)
	}

	var archive controllers.UtteranceArchive
	if cfg.MinIOEndpoint != "" {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			// voice still works without the archive
			logging.ErrorLogger.Error("minio connection error", zap.Error(err))
		} else {
			archive = minioClient
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewCollector(reg)

	tm := tokens.NewManager(cfg.JWTSecret)
	idp := cognito.NewServiceFromConfig(awsCfg, cfg.CognitoClientID).WithUserPool(cfg.AWSRegion, cfg.CognitoUserPoolID)
	bot := lex.NewServiceFromConfig(awsCfg, lex.Bot{
		BotID:    cfg.LexBotID,
		AliasID:  cfg.LexBotAliasID,
		LocaleID: cfg.LexLocaleID,
	})
	proxy := lambda.NewProxy(cfg.LambdaEndpoint, cfg.LambdaAPIKey, cfg.AWSAccessKeyID)
	if cfg.LambdaEndpoint == "" {
		logging.AppLogger.Warn("LAMBDA_ENDPOINT not set, /api/chat will answer 500")
	}

	health.Integration("cognito", cfg.CognitoClientID != "").
		Integration("lex", bot.Configured()).
		Integration("lambda", cfg.LambdaEndpoint != "").
		Integration("utterance_archive", archive != nil)

	limiter := middlewares.NewRateLimiter(middlewares.PerMinute(cfg.RateLimitPerMinute), rec)
	defer limiter.Stop()

	var wsOrigins []string
	if cfg.CORSOrigin != "" && cfg.CORSOrigin != "*" {
		wsOrigins = []string{strings.TrimPrefix(strings.TrimPrefix(cfg.CORSOrigin, "https://"), "http://")}
	}

	r := routes.NewRouter(routes.Deps{
		Tokens:         tm,
		Auth:           controllers.NewAuthController(idp, users, tm, rec),
		Chat:           controllers.NewChatController(proxy, chats, users, rec),
		Lex:            controllers.NewLexController(bot, archive, chats, users, rec),
		Health:         health,
		Limiter:        limiter,
		Metrics:        rec,
		MetricsHandler: metrics.Handler(reg),
		CORSOrigin:     cfg.CORSOrigin,
		WSOrigins:      wsOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
	}
	logging.AppLogger.Info("server shutdown complete")
}
