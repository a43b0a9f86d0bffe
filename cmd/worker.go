package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	cmdUtils "github.com/ramp-payments/verification-engine/cmd/utils"
	"github.com/ramp-payments/verification-engine/db"
	"github.com/ramp-payments/verification-engine/internal/config"
	"github.com/ramp-payments/verification-engine/internal/crashtracker"
	"github.com/ramp-payments/verification-engine/internal/data"
	"github.com/ramp-payments/verification-engine/internal/logging"
	"github.com/ramp-payments/verification-engine/internal/monitor"
	"github.com/ramp-payments/verification-engine/internal/notify"
	"github.com/ramp-payments/verification-engine/internal/provider"
	"github.com/ramp-payments/verification-engine/internal/verification"
)

// workerOptions holds the worker subcommand's own config, on top of the
// persistent --database-url/--log-level/etc carried by the root command.
type workerOptions struct {
	metricsPort int
	metricType  string

	crashTrackerType string

	providerBaseURL     string
	providerAdminID     string
	providerAdminSecret string

	emailSenderType string
	sendGridAPIKey  string
	sendGridSender  string
	awsSESSenderID  string
	awsRegion       string

	webServiceName string
}

type WorkerCommand struct{}

func (c *WorkerCommand) Command(monitorService *monitor.MonitorService) *cobra.Command {
	opts := workerOptions{}

	configOpts := cmdUtils.ConfigOptions{
		{
			Name:        "metrics-port",
			Usage:       "Port the /healthz and /metrics ops endpoints listen on.",
			OptType:     cmdUtils.ConfigOptionTypeInt,
			FlagDefault: 8002,
			ConfigKey:   &opts.metricsPort,
		},
		{
			Name:        "metric-type",
			Usage:       `The metric type used to monitor the engine. Options: "PROMETHEUS".`,
			OptType:     cmdUtils.ConfigOptionTypeString,
			FlagDefault: "PROMETHEUS",
			ConfigKey:   &opts.metricType,
		},
		{
			Name:        "crash-tracker-type",
			Usage:       `The crash tracker type. Options: "SENTRY", "DRY_RUN".`,
			OptType:     cmdUtils.ConfigOptionTypeString,
			FlagDefault: "DRY_RUN",
			ConfigKey:   &opts.crashTrackerType,
		},
		{
			Name:      "provider-base-url",
			Usage:     "Base URL of the payment provider's queryClearance endpoint.",
			OptType:   cmdUtils.ConfigOptionTypeString,
			ConfigKey: &opts.providerBaseURL,
			Required:  true,
		},
		{
			Name:      "provider-admin-id",
			Usage:     "Admin ID used to authenticate against the payment provider.",
			OptType:   cmdUtils.ConfigOptionTypeString,
			ConfigKey: &opts.providerAdminID,
			Required:  true,
		},
		{
			Name:      "provider-admin-secret",
			Usage:     "Admin secret used to authenticate against the payment provider.",
			OptType:   cmdUtils.ConfigOptionTypeString,
			ConfigKey: &opts.providerAdminSecret,
			Required:  true,
		},
		{
			Name:        "email-sender-type",
			Usage:       `The email sender used for confirmation/expiration emails. Options: "SENDGRID", "AWS_SES", "DRY_RUN".`,
			OptType:     cmdUtils.ConfigOptionTypeString,
			FlagDefault: "DRY_RUN",
			ConfigKey:   &opts.emailSenderType,
		},
		{
			Name:      "sendgrid-api-key",
			Usage:     "SendGrid API key, required when --email-sender-type=SENDGRID.",
			OptType:   cmdUtils.ConfigOptionTypeString,
			ConfigKey: &opts.sendGridAPIKey,
		},
		{
			Name:      "sendgrid-sender-address",
			Usage:     "Verified SendGrid sender address, required when --email-sender-type=SENDGRID.",
			OptType:   cmdUtils.ConfigOptionTypeString,
			ConfigKey: &opts.sendGridSender,
		},
		{
			Name:      "aws-ses-sender-id",
			Usage:     "AWS SES verified sender identity, required when --email-sender-type=AWS_SES.",
			OptType:   cmdUtils.ConfigOptionTypeString,
			ConfigKey: &opts.awsSESSenderID,
		},
		{
			Name:      "aws-region",
			Usage:     "AWS region for SES, defaults to the AWS SDK's credential chain region when unset.",
			OptType:   cmdUtils.ConfigOptionTypeString,
			ConfigKey: &opts.awsRegion,
		},
	}
	opts.webServiceName = "verification-engine"

	cmd := &cobra.Command{
		Use:              "worker",
		Short:            "Runs the Two-Phase Payment Verification Engine",
		Long:             "Starts the VerificationEngine's crash-recovery sweep and SlowSweeper loop, serves /healthz and /metrics, and blocks until SIGINT/SIGTERM.",
		PersistentPreRun: cmdUtils.DefaultPersistentPreRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := configOpts.Require(); err != nil {
				return err
			}
			if err := configOpts.SetValues(); err != nil {
				return fmt.Errorf("setting values of config options: %w", err)
			}
			return c.run(cmd.Context(), opts, monitorService)
		},
	}

	if err := configOpts.Init(cmd); err != nil {
		logging.Fatalf("initializing worker config options: %v", err)
	}

	return cmd
}

func (c *WorkerCommand) run(ctx context.Context, opts workerOptions, monitorService *monitor.MonitorService) error {
	crashTrackerType, err := crashtracker.ParseCrashTrackerType(opts.crashTrackerType)
	if err != nil {
		return fmt.Errorf("parsing crash tracker type: %w", err)
	}
	crashTrackerOptions := crashtracker.CrashTrackerOptions{CrashTrackerType: crashTrackerType}
	globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)
	crashTrackerClient, err := crashtracker.GetClient(ctx, crashTrackerOptions)
	if err != nil {
		return fmt.Errorf("setting up crash tracker client: %w", err)
	}
	defer crashTrackerClient.FlushEvents(2 * time.Second)
	defer crashTrackerClient.Recover()

	metricType, err := monitor.ParseMetricType(opts.metricType)
	if err != nil {
		return fmt.Errorf("parsing metric type: %w", err)
	}
	if err := monitorService.Start(monitor.MetricOptions{MetricType: metricType, Environment: globalOptions.Environment}); err != nil {
		return fmt.Errorf("starting monitor service: %w", err)
	}

	dbConnectionPool, err := db.OpenDBConnectionPoolWithMetrics(ctx, globalOptions.DatabaseURL, monitorService)
	if err != nil {
		return fmt.Errorf("opening database connection pool: %w", err)
	}
	defer dbConnectionPool.Close()

	models, err := data.NewModels(dbConnectionPool)
	if err != nil {
		return fmt.Errorf("creating models: %w", err)
	}

	cfg := config.DefaultEngineConfig()

	providerClient := provider.NewClient(provider.ClientOptions{
		BaseURL:          opts.providerBaseURL,
		AdminID:          opts.providerAdminID,
		AdminSecret:      opts.providerAdminSecret,
		MonitorService:   monitorService,
		Timeout:          cfg.ProviderTimeout,
		RetryInitial:     cfg.RetryInitial,
		RetryMultiplier:  cfg.RetryMultiplier,
		RetryCap:         cfg.RetryCap,
		RetryMaxAttempts: cfg.RetryMaxAttempts,
	})

	emailSender, err := buildEmailSender(ctx, opts)
	if err != nil {
		return fmt.Errorf("building email sender: %w", err)
	}
	sink := notify.NewSink(emailSender, cfg.WebhookTimeout, opts.webServiceName)

	engineID := uuid.NewString()
	clock := verification.RealClock{}
	engine := verification.NewEngine(cfg, models, providerClient, sink, monitorService, crashTrackerClient, clock, engineID)

	if err := engine.Start(ctx); err != nil {
		return fmt.Errorf("starting verification engine: %w", err)
	}
	logging.Ctx(ctx).Infof("verification engine %s started", engineID)

	opsServer, opsServerErrs := startOpsServer(ctx, opts.metricsPort, monitorService)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Ctx(ctx).Infof("received signal %s, shutting down", sig)
	case err := <-opsServerErrs:
		if err != nil {
			logging.Ctx(ctx).Errorf("ops server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), verification.StopGracePeriod+5*time.Second)
	defer cancel()

	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logging.Ctx(ctx).Errorf("shutting down ops server: %v", err)
	}

	if err := engine.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("stopping verification engine: %w", err)
	}
	logging.Ctx(ctx).Info("verification engine stopped cleanly")

	return nil
}

// startOpsServer serves /healthz and /metrics on a tiny stdlib mux. HTTP
// routing/auth/CORS middleware is out of scope for the engine's business
// surface, but an ops metrics port is not — it returns immediately and
// reports listen errors on the returned channel.
func startOpsServer(ctx context.Context, port int, monitorService monitor.MonitorServiceInterface) (*http.Server, chan error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	metricsHandler, err := monitorService.GetMetricHTTPHandler()
	if err != nil {
		logging.Ctx(ctx).Errorf("getting metrics HTTP handler: %v", err)
	} else {
		mux.Handle("/metrics", metricsHandler)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Ctx(ctx).Infof("ops server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	return server, errCh
}

func buildEmailSender(ctx context.Context, opts workerOptions) (notify.EmailSender, error) {
	switch opts.emailSenderType {
	case "SENDGRID":
		return notify.NewSendGridSender(opts.sendGridAPIKey, opts.sendGridSender)
	case "AWS_SES":
		return notify.NewAWSSESSender(ctx, "", "", opts.awsRegion, opts.awsSESSenderID)
	case "DRY_RUN", "":
		return notify.NewDryRunSender(), nil
	default:
		return nil, fmt.Errorf("unknown email sender type %q", opts.emailSenderType)
	}
}
