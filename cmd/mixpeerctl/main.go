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

// Command mixpeerctl is an operator CLI for inspecting a node's peer
// liveness state. It has no debug-socket client: connectNetwork always
// returns an error, so every subcommand fails before reaching a node.
package main

import (
	"fmt"
	"os"

	"github.com/Knetic/govaluate"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mixrelay/corenode/peer"
)

var (
	filterExprFlag string
	verboseFlag    bool
)

var rootCmd = &cobra.Command{
	Use:   "mixpeerctl",
	Short: "Inspect mixnoded's peer liveness state",
}

var peersCmd = &cobra.Command{
	Use:   "peers",
	Short: "List tracked peers, optionally filtered by an expression",
	RunE:  runPeers,
}

var debugOutputCmd = &cobra.Command{
	Use:   "debug-output",
	Short: "Print the full diagnostic table",
	RunE:  runDebugOutput,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose output")
	peersCmd.Flags().StringVar(&filterExprFlag, "filter", "", `expression over quality, backoff, isPublic, heartbeatsSent, heartbeatsSucceeded, e.g. "quality < 0.5 && isPublic"`)
	rootCmd.AddCommand(peersCmd, debugOutputCmd)
}

// filterVariables are the names exposed to --filter expressions.
var filterVariables = []string{"quality", "backoff", "isPublic", "heartbeatsSent", "heartbeatsSucceeded"}

func isSupportedFilterVar(name string) bool {
	for _, v := range filterVariables {
		if v == name {
			return true
		}
	}
	return false
}

func compileFilter(exprStr string) (func(peer.Status) bool, error) {
	if exprStr == "" {
		return func(peer.Status) bool { return true }, nil
	}
	expr, err := govaluate.NewEvaluableExpression(exprStr)
	if err != nil {
		return nil, fmt.Errorf("parsing filter expression: %w", err)
	}
	for _, v := range expr.Vars() {
		if !isSupportedFilterVar(v) {
			return nil, fmt.Errorf("unsupported filter variable %q", v)
		}
	}
	return func(s peer.Status) bool {
		params := map[string]interface{}{
			"quality":             s.Quality,
			"backoff":             s.Backoff,
			"isPublic":            s.IsPublic,
			"heartbeatsSent":      float64(s.HeartbeatsSent),
			"heartbeatsSucceeded": float64(s.HeartbeatsSucceeded),
		}
		result, err := expr.Evaluate(params)
		if err != nil {
			log.WithError(err).Warn("filter evaluation failed")
			return false
		}
		matched, ok := result.(bool)
		return ok && matched
	}, nil
}

func runPeers(cmd *cobra.Command, args []string) error {
	net, err := connectNetwork()
	if err != nil {
		return err
	}
	predicate, err := compileFilter(filterExprFlag)
	if err != nil {
		return err
	}
	for _, id := range net.Filter(predicate) {
		status, ok := net.GetPeerStatus(id)
		if !ok {
			continue
		}
		fmt.Println(status.String())
	}
	return nil
}

func runDebugOutput(cmd *cobra.Command, args []string) error {
	net, err := connectNetwork()
	if err != nil {
		return err
	}
	fmt.Print(net.DebugOutput(verboseFlag))
	return nil
}

// connectNetwork stands in for a debug-socket client. It dials nothing and
// always returns an error; mixnoded exposes no debug endpoint to dial.
func connectNetwork() (*peer.Network, error) {
	return nil, fmt.Errorf("mixpeerctl: no debug socket configured")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
