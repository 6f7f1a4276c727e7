/*
Copyright (c) mixrelay Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command mixnoded runs the peer liveness manager as a standalone daemon:
// it loads a Network from YAML config, exposes its metrics over HTTP, and
// drives a heartbeat loop against every due peer concurrently.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mixrelay/corenode/peer"
)

var (
	configFlag         string
	monitoringPortFlag int
	verboseFlag        bool
	tickIntervalFlag   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "mixnoded",
	Short: "Runs the mix-network peer liveness manager",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&configFlag, "config", "/etc/mixnoded/config.yaml", "path to the YAML config")
	rootCmd.Flags().IntVar(&monitoringPortFlag, "monitoringport", 8888, "port to serve /metrics on")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
	rootCmd.Flags().DurationVar(&tickIntervalFlag, "tick", 5*time.Second, "heartbeat sweep interval")
}

// liveHeartbeater is the real network's heartbeat probe. A production
// build wires this against the transport layer; it is an external
// collaborator from the peer package's point of view.
type liveHeartbeater struct{}

func (liveHeartbeater) Heartbeat(ctx context.Context, id peer.ID) peer.HeartbeatResult {
	// Placeholder transport: a real node replaces this with an actual
	// wire-level ping. Treated as failed until wired up.
	return peer.HeartbeatFailed(fmt.Errorf("heartbeat transport not configured for peer %x", id.Bytes()))
}

type noopActions struct{}

func (noopActions) IsPublic(peer.ID) bool                         { return false }
func (noopActions) CloseConnection(peer.ID)                       {}
func (noopActions) OnPeerOffline(peer.ID)                         {}
func (noopActions) OnNetworkHealthChange(old, current peer.Health) {
	log.Infof("network health %s -> %s", old, current)
}

func run(cmd *cobra.Command, args []string) error {
	if verboseFlag {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := peer.ReadConfig(configFlag)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	registry := prometheus.NewRegistry()
	metrics := peer.NewPrometheusMetrics(registry)

	net := peer.New(
		peer.ID(cfg.Me),
		cfg.QualityThreshold,
		noopActions{},
		peer.WithMetrics(metrics.AsMetrics()),
		peer.WithQuirks(cfg.AsQuirks()),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", monitoringPortFlag), Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Infof("serving metrics on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	eg.Go(func() error {
		return heartbeatLoop(ctx, net, liveHeartbeater{}, tickIntervalFlag)
	})

	if supported, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.WithError(err).Warn("sd_notify failed")
	} else if !supported {
		log.Debug("sd_notify not supported")
	}

	return eg.Wait()
}

type heartbeater interface {
	Heartbeat(ctx context.Context, id peer.ID) peer.HeartbeatResult
}

// heartbeatLoop pings every peer due for a heartbeat, concurrently, on
// every tick until ctx is cancelled.
func heartbeatLoop(ctx context.Context, net *peer.Network, hb heartbeater, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			due := net.FindPeersToPing(now)
			eg, ctx := errgroup.WithContext(ctx)
			for _, id := range due {
				id := id
				eg.Go(func() error {
					net.Update(id, hb.Heartbeat(ctx, id))
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				log.WithError(err).Error("heartbeat sweep failed")
			}
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
