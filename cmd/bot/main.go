package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/kongdonovan/anarchy-and-associates/internal/api/http"
	"github.com/kongdonovan/anarchy-and-associates/internal/api/http/handlers"
	"github.com/kongdonovan/anarchy-and-associates/internal/cascade"
	"github.com/kongdonovan/anarchy-and-associates/internal/config"
	"github.com/kongdonovan/anarchy-and-associates/internal/discord"
	"github.com/kongdonovan/anarchy-and-associates/internal/discord/commands"
	"github.com/kongdonovan/anarchy-and-associates/internal/events"
	"github.com/kongdonovan/anarchy-and-associates/internal/integrity"
	"github.com/kongdonovan/anarchy-and-associates/internal/notify"
	"github.com/kongdonovan/anarchy-and-associates/internal/observability"
	"github.com/kongdonovan/anarchy-and-associates/internal/permission"
	"github.com/kongdonovan/anarchy-and-associates/internal/persistence"
	"github.com/kongdonovan/anarchy-and-associates/internal/repository"
	"github.com/kongdonovan/anarchy-and-associates/internal/rolesync"
	"github.com/kongdonovan/anarchy-and-associates/internal/service"
	"github.com/kongdonovan/anarchy-and-associates/internal/validation"
	"github.com/kongdonovan/anarchy-and-associates/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
	if err != nil {
		logger.Fatal("failed to connect mongo", zap.Error(err))
	}
	defer mongo.Close(context.Background())

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	session, err := discordgo.New("Bot " + cfg.Discord.BotToken)
	if err != nil {
		logger.Fatal("failed to create discord session", zap.Error(err))
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages

	db := mongo.Database()
	staffRepo := repository.NewStaffRepository(db)
	caseRepo := repository.NewCaseRepository(db)
	guildCfgRepo := repository.NewGuildConfigRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	jobRepo := repository.NewJobRepository(db)
	retainerRepo := repository.NewRetainerRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	reminderRepo := repository.NewReminderRepository(db)

	adapter := discord.NewSessionAdapter(session, logger)
	notifier := notify.NewDiscordNotifier(session, logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	evaluator := permission.NewEvaluator(guildCfgRepo, logger)
	validator := validation.NewValidator(evaluator, staffRepo, caseRepo, metrics, logger)

	cascadeHandler := cascade.NewHandler(cascade.Dependencies{
		Cases:    caseRepo,
		Staff:    staffRepo,
		Notifier: notifier,
		Audit:    auditRepo,
		Syncer:   adapter,
		Metrics:  metrics,
		Logger:   logger,
	})

	checker := integrity.NewChecker(integrity.Repositories{
		Staff:        staffRepo,
		Cases:        caseRepo,
		Applications: applicationRepo,
		Jobs:         jobRepo,
		Retainers:    retainerRepo,
		Feedback:     feedbackRepo,
		Reminders:    reminderRepo,
	}, auditRepo, adapter, integrity.Options{
		CacheTTL:          cfg.Integrity.CacheTTL,
		RepairMaxAttempts: cfg.Integrity.RepairMaxAttempts,
		RepairBackoff:     cfg.Integrity.RepairBackoff,
	}, logger)

	detector := rolesync.NewDetector(adapter, adapter, adapter.StaffRoleResolver(), notifier, auditRepo, logger)

	staffService := service.NewStaffService(service.StaffDependencies{
		StaffRepo:  staffRepo,
		AuditRepo:  auditRepo,
		Validator:  validator,
		Cascade:    cascadeHandler,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	caseService := service.NewCaseService(service.CaseDependencies{
		CaseRepo:   caseRepo,
		AuditRepo:  auditRepo,
		Validator:  validator,
		Channels:   adapter,
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	retainerService := service.NewRetainerService(service.RetainerDependencies{
		RetainerRepo: retainerRepo,
		GuildCfgRepo: guildCfgRepo,
		AuditRepo:    auditRepo,
		Validator:    validator,
		Notifier:     notifier,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	configService := service.NewConfigService(service.ConfigDependencies{
		GuildCfgRepo: guildCfgRepo,
		AuditRepo:    auditRepo,
		Validator:    validator,
		Logger:       logger,
	})
	integrityService := service.NewIntegrityService(service.IntegrityDependencies{
		Checker:   checker,
		Evaluator: evaluator,
		Redis:     redis,
		Logger:    logger,
	})
	notificationService := service.NewNotificationService(dispatcher, guildCfgRepo, notifier, logger)
	worker.StartNotificationWorker(notificationService)

	router := commands.NewRouter(session, redis, cfg.Discord.CommandCooldown(), metrics, logger)
	commands.RegisterStaffCommands(router, staffService)
	commands.RegisterCaseCommands(router, caseService)
	commands.RegisterRetainerCommands(router, retainerService)
	commands.RegisterConfigCommands(router, configService)
	commands.RegisterRepairCommands(router, integrityService)
	router.Listen()

	// Reconcile staff roles when a member's Discord roles change outside the
	// bot's own commands.
	session.AddHandler(func(s *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.Member == nil || m.User == nil {
			return
		}
		record, conflicted := detector.DetectMember(m.GuildID, m.User.ID, m.Roles)
		if !conflicted {
			return
		}
		if err := detector.Resolve(ctx, record, adapter.StaffRoleIDs(m.GuildID), "system"); err != nil {
			logger.Warn("role conflict resolution failed",
				zap.String("guild_id", m.GuildID),
				zap.String("user_id", m.User.ID),
				zap.Error(err))
		}
	})

	if err := session.Open(); err != nil {
		logger.Fatal("failed to open discord gateway", zap.Error(err))
	}
	defer session.Close()

	if err := router.Sync(cfg.Discord.GuildID); err != nil {
		logger.Fatal("failed to sync application commands", zap.Error(err))
	}
	logger.Info("discord gateway connected", zap.String("guild_id", cfg.Discord.GuildID))

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, 30*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, mongo, redis),
		Integrity: handlers.NewIntegrityHandler(integrityService),
		Metrics:   handlers.NewMetricsHandler(metrics),
	})
	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	worker.StartIntegritySweeper(ctx, integrityService, adapter,
		time.Duration(cfg.Integrity.SweepIntervalMinutes)*time.Minute, cfg.Integrity.SweepDryRun, logger)
	worker.StartReminderWorker(ctx, reminderRepo, notifier, logger)

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
