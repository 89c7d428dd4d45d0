package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/counsel/internal/config"
	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/live"
	"github.com/vango-dev/counsel/pkg/metrics"
	"github.com/vango-dev/counsel/pkg/page"
	"github.com/vango-dev/counsel/pkg/pref"
	"github.com/vango-dev/counsel/pkg/sched"
	"github.com/vango-dev/counsel/pkg/toast"
	"github.com/vango-dev/counsel/pkg/transport"
	"github.com/vango-dev/counsel/pkg/upload"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 10 * time.Minute
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the page catalogue",
		Long: `Host the page catalogue over WebSocket.

Routes:
  /live/{page}   page session
  /upload        stage an image, /upload/{id} previews it
  /pages         catalogue as JSON
  /metrics       Prometheus metrics
  /healthz       liveness

Examples:
  counsel serve
  counsel serve --config deploy/counsel.json --port 8081`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from counsel.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from counsel.json)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg, os.Stderr)

	catalogue, err := page.LoadCatalogue(cfg.PagesPath())
	if err != nil {
		return err
	}
	prefs, err := pref.OpenFile(cfg.PrefsPath())
	if err != nil {
		return err
	}
	uploads, err := openUploads(cfg)
	if err != nil {
		return err
	}

	var (
		m        *metrics.Metrics
		gatherer prometheus.Gatherer
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(metrics.WithNamespace(cfg.Metrics.Namespace), metrics.WithRegistry(reg))
		gatherer = reg
	}

	client := &http.Client{Timeout: cfg.UpstreamTimeout()}
	h, err := live.NewHost(live.Config{
		Catalogue: catalogue,
		Sender: func(s sched.Scheduler) (transport.Sender, error) {
			return transport.NewHTTPSender(cfg.Upstream.BaseURL, s,
				transport.WithClient(client),
				transport.WithLogger(logger),
			)
		},
		Metrics:  m,
		Gatherer: gatherer,
		Logger:   logger,
		Prefs:    prefs,
		Uploads:  uploads,
		Toast: toast.Config{
			Duration:   cfg.ToastDuration(),
			Transition: cfg.ToastTransition(),
		},
		SafetyTimeout:  cfg.SafetyTimeout(),
		Debounce:       cfg.FilterDebounce(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening",
			"url", cfg.URL(),
			"pages", catalogue.Len(),
			"upstream", cfg.Upstream.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		expiry := upload.DefaultConfig().TempExpiry
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := uploads.Cleanup(expiry); err != nil {
					logger.Warn("upload cleanup failed", "error", err)
				}
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := h.Shutdown(shutdownCtx); err != nil {
			logger.Warn("sessions did not close in time", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openUploads stages images in a bucket for s3:// paths and on disk
// otherwise.
func openUploads(cfg *config.Config) (upload.Store, error) {
	if !cfg.UploadsInBucket() {
		return upload.NewDiskStore(cfg.UploadsPath(), upload.MaxImageSize)
	}
	loc, err := upload.ParseS3URL(cfg.UploadsPath())
	if err != nil {
		return nil, err
	}
	client := upload.NewS3Client(cfg.S3Region(), cfg.S3.Endpoint, aws.NewCredentialsCache(envCredentials{}))
	return upload.NewS3Store(client, loc, upload.MaxImageSize, upload.WithS3Timeout(cfg.UpstreamTimeout())), nil
}

// envCredentials reads the standard AWS key variables.
type envCredentials struct{}

func (envCredentials) Retrieve(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "environment",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, errors.New("C401").
			WithField("s3").
			WithDetail("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set")
	}
	return creds, nil
}
