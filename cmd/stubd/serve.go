package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getstubd/stubd/pkg/config"
	"github.com/getstubd/stubd/pkg/logging"
	"github.com/getstubd/stubd/pkg/stub"
	stubtls "github.com/getstubd/stubd/pkg/tls"
)

const stopTimeout = 10 * time.Second

type serveFlags struct {
	host      string
	httpPort  int
	httpsPort int
	certFile  string
	keyFile   string
	stubsFile string
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stubd",
		Short:         "Embeddable HTTP/HTTPS stub server for test suites",
		Version:       fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	flags := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the stub server and run until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.host, "host", "", "bind host (empty binds all interfaces)")
	cmd.Flags().IntVar(&flags.httpPort, "http-port", 8080, "HTTP port (0 disables the HTTP side)")
	cmd.Flags().IntVar(&flags.httpsPort, "https-port", 0, "HTTPS port (0 disables the HTTPS side)")
	cmd.Flags().StringVar(&flags.certFile, "cert", "", "TLS certificate file (self-signed when omitted)")
	cmd.Flags().StringVar(&flags.keyFile, "key", "", "TLS key file")
	cmd.Flags().StringVar(&flags.stubsFile, "stubs", "", "stub file (YAML) to register at startup")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "text", "log format (text, json)")
	return cmd
}

func runServe(ctx context.Context, flags *serveFlags) error {
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(flags.logLevel),
		Format: logging.ParseFormat(flags.logFormat),
	})

	cfg := stub.Config{Host: flags.host}
	if flags.httpPort > 0 {
		cfg.HTTP = &stub.ListenerConfig{Port: flags.httpPort}
	}
	if flags.httpsPort > 0 {
		cfg.HTTPS = &stub.ListenerConfig{Port: flags.httpsPort}
		if flags.certFile != "" || flags.keyFile != "" {
			material, err := stubtls.LoadMaterial(flags.certFile, flags.keyFile)
			if err != nil {
				return err
			}
			cfg.TLS = material
		}
	}
	if cfg.HTTP == nil && cfg.HTTPS == nil {
		return fmt.Errorf("nothing to serve: both HTTP and HTTPS are disabled")
	}

	s, err := stub.New(cfg, stub.WithLogger(log))
	if err != nil {
		return err
	}

	if flags.stubsFile != "" {
		f, err := config.Load(flags.stubsFile)
		if err != nil {
			return err
		}
		handlers, err := f.Handlers()
		if err != nil {
			return err
		}
		for _, h := range handlers {
			s.Register(h)
		}
		log.Info("registered stubs", "file", flags.stubsFile, "count", len(handlers))
	}

	if err := s.Start(); err != nil {
		return err
	}
	if url := s.HTTPURL(); url != "" {
		log.Info("HTTP side up", "url", url)
	}
	if url := s.HTTPSURL(); url != "" {
		log.Info("HTTPS side up", "url", url)
	}

	sigCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-sigCtx.Done()

	log.Info("shutting down")
	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	return s.Stop(stopCtx)
}
