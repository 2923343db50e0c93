package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codegrana/storefront-payments/app/controller"
	"github.com/codegrana/storefront-payments/app/gateway"
	"github.com/codegrana/storefront-payments/app/notifier"
	"github.com/codegrana/storefront-payments/app/repository"
	"github.com/codegrana/storefront-payments/app/service"
	"github.com/codegrana/storefront-payments/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server exposing checkout, webhook, and download endpoints.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, services, cleanup := mustCreateServices()
	defer cleanup()

	checkoutController := controller.NewCheckoutController(services.checkout)
	webhookController := controller.NewWebhookController(services.webhook)
	downloadController := controller.NewDownloadController(cfg.Entitlement.TokenSecret)

	e := setupHTTPServer(checkoutController, webhookController, downloadController)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	checkoutController *controller.CheckoutController,
	webhookController *controller.WebhookController,
	downloadController *controller.DownloadController,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", checkoutController.Health)

	payments := e.Group("/payments")
	payments.POST("", checkoutController.CreateIntent)
	payments.POST("/batch", checkoutController.CreateBatch)

	e.POST("/webhooks/payment", webhookController.HandlePaymentEvent)
	e.GET("/downloads/:token", downloadController.Redeem)

	return e
}

type services struct {
	checkout *service.CheckoutService
	webhook  *service.WebhookService
}

func mustCreateServices() (*config.Config, *services, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	eventRepo := repository.NewPaymentEventRepository(db)
	productRepo := repository.NewProductRepository(db)
	userRepo := repository.NewUserRepository(db)

	asaasClient := gateway.NewClient(gateway.Config{
		BaseURL:     cfg.Asaas.BaseURL,
		AccessToken: cfg.Asaas.AccessToken,
		HTTPTimeout: cfg.Asaas.HTTPTimeout,
		DueDateDays: cfg.Asaas.DueDateDays,
	})

	emailNotifier := notifier.NewEmailNotifier(notifier.Config{
		ResendAPIKey:    cfg.Entitlement.ResendAPIKey,
		ResendBaseURL:   cfg.Entitlement.ResendBaseURL,
		FromEmail:       cfg.Entitlement.FromEmail,
		DownloadBaseURL: cfg.Entitlement.DownloadBaseURL,
		TokenSecret:     cfg.Entitlement.TokenSecret,
		TokenTTL:        cfg.Entitlement.TokenTTL,
		HTTPTimeout:     cfg.Entitlement.HTTPTimeout,
	})

	checkoutService := service.NewCheckoutService(
		productRepo,
		userRepo,
		orderRepo,
		paymentRepo,
		eventRepo,
		asaasClient,
		cfg.Checkout.ItemTimeout,
	)
	webhookService := service.NewWebhookService(
		paymentRepo,
		orderRepo,
		eventRepo,
		emailNotifier,
		asaasClient,
		cfg.Asaas.WebhookSecret,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, &services{checkout: checkoutService, webhook: webhookService}, cleanup
}
