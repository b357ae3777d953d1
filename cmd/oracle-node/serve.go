// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/oracle"
	"github.com/luxfi/oracle/api"
	"github.com/luxfi/oracle/chains"
	"github.com/luxfi/oracle/collector"
	"github.com/luxfi/oracle/config"
	"github.com/luxfi/oracle/consensus"
	"github.com/luxfi/oracle/feeds"
	"github.com/luxfi/oracle/metrics"
	"github.com/luxfi/oracle/round"
	"github.com/luxfi/oracle/verifier"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the validator node",
	Long: `Serve the validator endpoints and lead every round assigned to this node.
Feed values come from the values section of the configuration file and
dispatched rounds are logged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		return serve(ctx, log.NewLogger("oracle-node"), cfg)
	},
}

func serve(ctx context.Context, logger log.Logger, cfg config.Config) error {
	registry := prometheus.NewRegistry()
	oracleMetrics := metrics.NewOracleMetrics(registry)

	var (
		signer     = cfg.Signer()
		chainList  = cfg.Registry()
		feedConfig = cfg.FeedConfig()
		source     = feeds.NewFixedSource(cfg.FeedValues())
		reader     = feeds.NewMemoryReader()
		trigger    = feeds.NewTrigger(feedConfig, reader)
	)

	v := verifier.NewVerifier(logger, signer, chainList, feedConfig, source, trigger, oracleMetrics)
	handler, err := verifier.NewCachedHandler(v, cfg.VerifierCacheSize)
	if err != nil {
		return err
	}

	runner, err := round.NewRunner(
		logger,
		round.Config{
			RoundLength:  cfg.RoundLength,
			MaxAttempts:  cfg.MaxAttempts,
			FetchTimeout: cfg.FetchTimeout,
		},
		signer,
		round.StaticValidators(cfg.Validators),
		feedConfig,
		source,
		trigger,
		chainList,
		chains.NewCachedMembership(chains.NewStaticMembership(chainList), cfg.MembershipTTL),
		collector.NewCollector(
			logger,
			&http.Client{},
			signer,
			chainList,
			oracleMetrics,
			cfg.SignatureTimeout,
			cfg.StatusTimeout,
		),
		consensus.NewGenerator(logger, oracle.Version, cfg.MinimumRequiredPower),
		chains.NewLoggingDispatcher(logger, reader),
		oracleMetrics,
	)
	if err != nil {
		return err
	}

	apiListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.APIPort))
	if err != nil {
		return fmt.Errorf("failed to listen on api port: %w", err)
	}
	metricsListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.MetricsPort))
	if err != nil {
		_ = apiListener.Close()
		return fmt.Errorf("failed to listen on metrics port: %w", err)
	}

	info := &oracle.InfoResponse{
		Validator: signer.Address(),
		Version:   oracle.Version.String(),
		Chains:    chainList.IDs(),
	}
	logger.Info("starting oracle node",
		log.Stringer("validator", signer.Address()),
		log.Stringer("version", oracle.Version),
		log.Int("apiPort", int(cfg.APIPort)),
		log.Int("metricsPort", int(cfg.MetricsPort)),
	)

	p2pHandler, err := api.NewP2PHandler(logger, registry, handler, cfg.SignatureTimeout)
	if err != nil {
		_ = apiListener.Close()
		_ = metricsListener.Close()
		return err
	}
	apiServer := api.NewHTTPServer(
		ctx,
		logger,
		apiListener,
		api.NewHandler(logger, handler, info, p2pHandler, cfg.AllowedOrigins),
	)
	metricsServer := api.NewHTTPServer(ctx, logger, metricsListener, api.NewMetricsHandler(registry))

	var eg errgroup.Group
	eg.Go(func() error {
		runner.Run(ctx)
		return nil
	})
	eg.Go(func() error {
		apiServer.Wait()
		return nil
	})
	eg.Go(func() error {
		metricsServer.Wait()
		return nil
	})
	return eg.Wait()
}
