// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"go.uber.org/zap"

	"receipt-service/internal/config"
	"receipt-service/internal/database"
	"receipt-service/internal/escpos"
	"receipt-service/internal/handler"
	"receipt-service/internal/link"
	"receipt-service/internal/model"
	"receipt-service/internal/printer"
	"receipt-service/internal/repository"
	"receipt-service/internal/routes"
	"receipt-service/internal/service"
	"receipt-service/internal/utils"
)

// jobRetentionDays is how long completed jobs stay in the journal
const jobRetentionDays = 90

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	eventBus    *handler.EventBus
	printerLink link.PrinterLink

	printService *service.PrintService
	jobRepo      repository.JobRepository
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, "receipt-service")
	serviceLogger.LogServiceStart(cfg.App.Version)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.eventBus = handler.NewEventBus(logger)
	go app.eventBus.Start()

	if err := app.initializePrinter(); err != nil {
		return nil, fmt.Errorf("failed to initialize printer: %w", err)
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.initializeServer(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return app, nil
}

// initializeDatabase sets up database connection and runs migrations
func (app *Application) initializeDatabase() error {
	db, err := database.NewConnection(&app.config.Database, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}

	app.database = db

	migrator := database.NewMigrator(db, app.logger)
	if err := migrator.Up(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializePrinter opens the configured printer link
func (app *Application) initializePrinter() error {
	connType := model.ConnectionType(app.config.Printer.ConnectionType)

	var printerLink link.PrinterLink
	var err error
	switch connType {
	case model.ConnectionTypeBluetooth:
		printerLink, err = app.connectBluetooth()
	default:
		printerLink, err = link.CreateLink(connType, app.config.Printer.ConnectionConfig, app.logger)
	}
	if err != nil {
		return err
	}

	app.printerLink = printerLink
	app.eventBus.Publish(model.NewPrinterEvent(model.EventPrinterConnected, nil, model.JSONObject{
		"connection_type": string(connType),
		"chunk_limit":     printerLink.ChunkLimit(),
	}))

	app.logger.Info("Printer link established",
		zap.String("connection_type", string(connType)),
		zap.Int("chunk_limit", printerLink.ChunkLimit()),
	)
	return nil
}

// connectBluetooth dials the configured BLE printer and resolves its
// writable characteristic
func (app *Application) connectBluetooth() (link.PrinterLink, error) {
	btCfg := &app.config.Printer.Bluetooth
	if btCfg.Address == "" {
		return nil, fmt.Errorf("printer.bluetooth.address is required")
	}

	charUUID, err := ble.Parse(btCfg.CharacteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("invalid characteristic UUID: %w", err)
	}

	device, err := linux.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("failed to open HCI device: %w", err)
	}
	ble.SetDefaultDevice(device)

	ctx, cancel := context.WithTimeout(context.Background(), btCfg.ConnectTimeout)
	defer cancel()

	client, err := ble.Dial(ctx, ble.NewAddr(btCfg.Address))
	if err != nil {
		return nil, fmt.Errorf("failed to dial printer %s: %w", btCfg.Address, err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		client.CancelConnection()
		return nil, fmt.Errorf("failed to discover GATT profile: %w", err)
	}

	char := findWritableCharacteristic(profile, charUUID)
	if char == nil {
		client.CancelConnection()
		return nil, fmt.Errorf("characteristic %s not found on printer", btCfg.CharacteristicUUID)
	}

	attMTU := btCfg.MTU
	if attMTU <= 0 {
		if negotiated, err := client.ExchangeMTU(512); err == nil {
			attMTU = negotiated
		}
	}

	return link.NewBLELink(client, char, attMTU, app.logger), nil
}

// findWritableCharacteristic locates the target characteristic in the
// discovered profile
func findWritableCharacteristic(profile *ble.Profile, uuid ble.UUID) *ble.Characteristic {
	for _, svc := range profile.Services {
		for _, char := range svc.Characteristics {
			if char.UUID.Equal(uuid) {
				return char
			}
		}
	}
	return nil
}

// initializeServices creates service instances
func (app *Application) initializeServices() error {
	app.jobRepo = repository.NewJobRepository(app.database, app.logger)

	paperProfile := escpos.PaperNarrow
	if app.config.Printer.PaperProfile == "80mm" {
		paperProfile = escpos.PaperWide
	}

	receiptPrinter := printer.New(app.printerLink, paperProfile, app.logger)

	app.printService = service.NewPrintService(
		receiptPrinter,
		app.jobRepo,
		app.eventBus,
		model.ConnectionType(app.config.Printer.ConnectionType),
		app.config.Printer.WriteTimeout,
		app.logger,
	)

	app.logger.Info("Services initialized successfully")
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() error {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.printService,
		app.printerLink,
		app.eventBus,
	)

	router := routerManager.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
	)

	return nil
}

// startBackgroundServices starts background services
func (app *Application) startBackgroundServices() {
	go app.watchPrinterLink()
	go app.startCleanupService()

	app.logger.Info("Background services started")
}

// watchPrinterLink publishes a disconnect event when the printer drops.
// In-flight jobs fail on their own through the transport; this only keeps
// subscribers informed.
func (app *Application) watchPrinterLink() {
	<-app.printerLink.Disconnected()

	app.logger.Warn("Printer link lost")
	app.eventBus.Publish(model.NewPrinterEvent(model.EventPrinterDisconnected, nil, model.JSONObject{
		"connection_type": app.config.Printer.ConnectionType,
	}))
}

// startCleanupService purges old journal entries once a day
func (app *Application) startCleanupService() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	app.logger.Info("Cleanup service started", zap.Int("retention_days", jobRetentionDays))

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)

		if _, err := app.printService.PurgeJobs(ctx, jobRetentionDays); err != nil {
			app.logger.Error("Failed to purge old print jobs", zap.Error(err))
		}

		cancel()
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, "receipt-service")
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	if app.printerLink != nil {
		if err := app.printerLink.Close(); err != nil {
			app.logger.Error("Printer link close error", zap.Error(err))
		} else {
			app.logger.Info("Printer link closed")
		}
	}

	app.eventBus.Close()

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()

	app.waitForShutdown()

	return nil
}
