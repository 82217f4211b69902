package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/inventario-ensamble/internal/application/inventory"
	"github.com/jhoicas/inventario-ensamble/internal/application/usecase"
	"github.com/jhoicas/inventario-ensamble/internal/domain/repository"
	infrakafka "github.com/jhoicas/inventario-ensamble/internal/infrastructure/kafka"
	"github.com/jhoicas/inventario-ensamble/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/inventario-ensamble/internal/infrastructure/pdf"
	"github.com/jhoicas/inventario-ensamble/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/inventario-ensamble/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/inventario-ensamble/internal/interfaces/http"
	"github.com/jhoicas/inventario-ensamble/pkg/config"
	"github.com/jhoicas/inventario-ensamble/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner   inventory.TxRunner
		warehouses repository.WarehouseRepository
		products   repository.ProductRepository
	)
	switch cfg.DB.Driver {
	case "memory":
		store := memory.NewStore()
		txRunner, warehouses, products = store, store.Warehouses(), store.Products()
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar esquema")
		}
		txRunner = postgres.NewTxRunner(pool, cfg.DB.LockTimeoutMS)
		warehouses, products = postgres.NewWarehouseRepository(pool), postgres.NewProductRepository(pool)
	}

	// Caché de saldos (opcional)
	var stockCache inventory.StockCache
	if cfg.Redis.URL != "" {
		client, err := infraredis.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, consultas sin caché")
		} else {
			defer client.Close()
			stockCache = infraredis.NewStockCache(client, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
			log.Info().Int("ttl_s", cfg.Redis.TTLSeconds).Msg("caché de stock en redis")
		}
	}

	// Eventos de inventario (opcional)
	var publisher inventory.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kp := infrakafka.NewEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publicador kafka")
			}
		}()
		publisher = kp
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publicación de eventos en kafka")
	}

	notifier := inventory.NewNotifier(publisher, stockCache, log)

	warehouseUC := usecase.NewWarehouseUseCase(warehouses)
	productUC := usecase.NewProductUseCase(products)
	itemUC := inventory.NewItemUseCase(txRunner, notifier)
	queryUC := inventory.NewQueryUseCase(txRunner, stockCache, log)
	bomUC := inventory.NewBOMUseCase(txRunner)
	productionUC := inventory.NewProductionNoteUseCase(txRunner, notifier)
	outboundUC := inventory.NewOutboundUseCase(txRunner, notifier)
	transferUC := inventory.NewTransferUseCase(txRunner, notifier)
	replenishmentUC := inventory.NewReplenishmentUseCase(txRunner)
	kardexUC := inventory.NewKardexReportUseCase(txRunner, infrapdf.NewMarotoPDFGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Inventario Ensamble API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		WarehouseUC:   warehouseUC,
		ProductUC:     productUC,
		ItemUC:        itemUC,
		QueryUC:       queryUC,
		BOMUC:         bomUC,
		ProductionUC:  productionUC,
		OutboundUC:    outboundUC,
		TransferUC:    transferUC,
		Replenishment: replenishmentUC,
		KardexReport:  kardexUC,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
