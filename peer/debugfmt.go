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

package peer

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/davecgh/go-spew/spew"
	"github.com/eclesh/welford"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/process"
	"golang.org/x/term"
)

// DebugOutput renders a human-readable table of every tracked peer plus
// the aggregate health, sorted by peer id for determinism. If verbose is
// set, the table is followed by a go-spew dump of every peer's full Status
// and then the calling process's CPU and RSS usage.
func (n *Network) DebugOutput(verbose bool) string {
	n.mu.Lock()
	ids := make([]ID, 0, len(n.entries))
	statuses := make(map[ID]Status, len(n.entries))
	for id, entry := range n.entries {
		ids = append(ids, id)
		statuses[id] = n.withIgnoredAt(entry)
	}
	health := n.lastHealth
	n.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var buf bytes.Buffer
	colorize := term.IsTerminal(int(os.Stdout.Fd()))

	fmt.Fprintf(&buf, "network health: %s\n", colorHealth(health, colorize))
	fmt.Fprintf(&buf, "peers by origin:\n")
	byOrigin(ids, statuses, &buf)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"peer", "origin", "public", "quality", "backoff", "sent", "succeeded", "ignored"})
	for _, id := range ids {
		s := statuses[id]
		ignored := ""
		if s.IgnoredAt != nil {
			ignored = fmt.Sprintf("%d", *s.IgnoredAt)
		}
		table.Append([]string{
			fmt.Sprintf("%x", id.Bytes()),
			s.Origin.String(),
			fmt.Sprintf("%t", s.IsPublic),
			fmt.Sprintf("%.2f", s.Quality),
			fmt.Sprintf("%.3g", s.Backoff),
			fmt.Sprintf("%d", s.HeartbeatsSent),
			fmt.Sprintf("%d", s.HeartbeatsSucceeded),
			ignored,
		})
	}
	table.Render()

	if len(ids) > 1 {
		fmt.Fprintf(&buf, "quality stddev: %.4f\n", qualityStddev(statuses))
	}

	if verbose {
		for _, id := range ids {
			spew.Fdump(&buf, statuses[id])
		}
		if self, err := process.NewProcess(int32(os.Getpid())); err == nil {
			if cpu, err := self.CPUPercent(); err == nil {
				fmt.Fprintf(&buf, "host: cpu=%.2f%%\n", cpu)
			}
			if mem, err := self.MemoryInfo(); err == nil {
				fmt.Fprintf(&buf, "host: rss=%d bytes\n", mem.RSS)
			}
		}
	}

	return buf.String()
}

// byOrigin writes a one-line peer count per Origin, a breakdown the
// reference implementation's debug dump never had.
func byOrigin(ids []ID, statuses map[ID]Status, buf *bytes.Buffer) {
	counts := make(map[Origin]int)
	for _, id := range ids {
		counts[statuses[id].Origin]++
	}
	for o := OriginInitialization; o <= OriginTesting; o++ {
		if counts[o] > 0 {
			fmt.Fprintf(buf, "  %s: %d\n", o, counts[o])
		}
	}
}

// qualityStddev is a supplementary, non-authoritative diagnostic: it
// plays no part in bucket classification or health derivation, which
// only ever look at the quality threshold.
func qualityStddev(statuses map[ID]Status) float64 {
	s := welford.New()
	for _, st := range statuses {
		s.Add(st.Quality)
	}
	return s.Stddev()
}

func colorHealth(h Health, colorize bool) string {
	if !colorize {
		return h.String()
	}
	switch h {
	case HealthGreen:
		return color.GreenString(h.String())
	case HealthYellow:
		return color.YellowString(h.String())
	case HealthOrange:
		return color.New(color.FgHiYellow).Sprint(h.String())
	case HealthRed:
		return color.RedString(h.String())
	default:
		return h.String()
	}
}
