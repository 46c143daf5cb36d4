package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smarthouse/internal/gpio"
	"smarthouse/internal/handlers"
	"smarthouse/internal/logger"
	"smarthouse/internal/notifier"
	"smarthouse/internal/registry"
	"smarthouse/internal/repository"
	"smarthouse/internal/repository/db"
	"smarthouse/internal/server"
	"smarthouse/internal/service"

	"github.com/spf13/viper"
)

func main() {
	// load config.yml
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.Get(viper.GetString("log.level"))

	// open DB
	conn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// open GPIO
	driver, err := openGPIO(log)
	if err != nil {
		log.Fatalw("failed to open gpio", "err", err)
	}
	defer func() {
		if cerr := driver.Close(); cerr != nil {
			log.Errorw("failed to close gpio", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(conn)
	reg := registry.New(driver, log.Named("registry"))
	notif := notifier.New(log.Named("notifier"))
	services := service.NewService(repos, reg, notif,
		viper.GetString("jwt.signing_key"), scheduleTick(), log)
	apiHandler := handlers.NewHandler(services, log)

	if err := bootstrapHouse(services, reg, log); err != nil {
		log.Fatalw("failed to bootstrap house", "err", err)
	}

	// re-arm the evaluator for devices scheduled before the restart
	for _, d := range reg.ScheduledDevices() {
		services.Schedule.ScheduleDevice(d)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, services, reg, notif, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "smarthouse.db")
		dbPath = "smarthouse.db"
	}
	return db.InitDB(dbPath)
}

// openGPIO selects the relay driver. The simulated driver keeps the full
// stack runnable on machines without a GPIO header.
func openGPIO(log *logger.Logger) (gpio.Driver, error) {
	if viper.GetBool("gpio.simulated") {
		log.Infow("using simulated gpio driver")
		return gpio.NewSimDriver(), nil
	}
	return gpio.OpenRpio()
}

func scheduleTick() time.Duration {
	if tick := viper.GetDuration("schedule.tick"); tick > 0 {
		return tick
	}
	return service.DefaultTick
}

// bootstrapHouse creates the house record on first run, then loads the
// persisted tree into the registry and binds every device pin.
func bootstrapHouse(services *service.Service, reg *registry.Registry, log *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	house, err := services.House.Bootstrap(ctx,
		viper.GetString("house.name"), viper.GetString("house.password"))
	if err != nil {
		return err
	}
	if err := reg.Load(house); err != nil {
		return err
	}
	log.Infow("house loaded", "house", house.HouseName, "rooms", len(house.Rooms))
	return nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, services *service.Service, reg *registry.Registry, notif *notifier.Notifier, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the evaluator before releasing outputs so no switch races the teardown
	services.Schedule.Stop()
	notif.CloseAll()
	reg.Shutdown()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
