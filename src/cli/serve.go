// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"fmt"
	"os"

	"github.com/H0llyW00dzZ/keybox-checker/src/httpapi"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/metrics"
	"github.com/H0llyW00dzZ/keybox-checker/src/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCommand(version string, log logger.Logger, root *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the keybox validation HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			structured := logger.NewStructuredLogger(os.Stderr, false)
			if err := structured.SetLevel(cfg.Log.Level); err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}
			if err := structured.SetFormat(cfg.Log.Format); err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			engine, err := cfg.NewEngine(version, m, structured.WithField("pkg", "validator"))
			if err != nil {
				return fmt.Errorf("failed to load resources: %w", err)
			}

			srv, err := httpapi.NewServer(engine, httpapi.Config{
				Addr:              cfg.Server.Addr,
				Version:           version,
				Limits:            cfg.Upload,
				Keybox:            keybox.Options{RequirePrivateKey: cfg.Validation.RequirePrivateKey},
				RequestsPerSecond: cfg.Server.RequestsPerSecond,
				Burst:             cfg.Server.Burst,
				ReadTimeout:       cfg.ReadTimeout(),
				WriteTimeout:      cfg.WriteTimeout(),
				Logger:            structured,
				Metrics:           m,
				Gatherer:          reg,
			})
			if err != nil {
				return err
			}

			log.Printf("Keybox checker %s listening on %s", version, cfg.Server.Addr)
			OperationPerformed = true
			if err := srv.Run(cmd.Context()); err != nil {
				return err
			}
			OperationPerformedSuccessfully = true
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
