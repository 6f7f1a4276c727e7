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

// Package peer tracks the liveness and quality of every peer a node has
// observed, derives a coarse network-health indicator from that
// population, and decides which peers are due for another heartbeat.
package peer

import (
	"fmt"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/mixrelay/corenode/internal/peerfmt"
)

// Quirks toggles literal reproduction of the reference implementation's
// documented rough edges. Every field defaults to the literal behavior;
// flip a field to get the evidently-intended fix instead.
type Quirks struct {
	// LiteralBackoffFormula reproduces the failed-heartbeat backoff update
	// exactly as specified: backoff = max(MaxBackoff, backoff^exponent).
	// Since backoff^exponent stays well under MaxBackoff=300 for any
	// realistic starting backoff (MinBackoff=2.0 becomes ~2.83, not 300),
	// max() pins the result at MaxBackoff on essentially every failure,
	// not just once backoff has already grown large. Set to false to use
	// min() instead, which caps backoff at MaxBackoff without forcing it
	// there immediately -- the more conventional reading of an exponential
	// backoff cap.
	LiteralBackoffFormula bool
}

// DefaultQuirks returns the literal, spec-faithful defaults.
func DefaultQuirks() Quirks {
	return Quirks{LiteralBackoffFormula: true}
}

// Option configures a Network at construction time.
type Option func(*Network)

// WithClock overrides the time source. Tests use this to drive the state
// machine deterministically.
func WithClock(c Clock) Option {
	return func(n *Network) { n.clock = c }
}

// WithMetrics wires gauges the Network republishes each time Add or Update
// reclassifies a peer; Remove, and an Update that evicts a peer, leave them
// as they were. Any field left nil is simply skipped.
func WithMetrics(m Metrics) Option {
	return func(n *Network) { n.metrics = m }
}

// WithQuirks overrides the default literal-reproduction toggles.
func WithQuirks(q Quirks) Option {
	return func(n *Network) { n.quirks = q }
}

// Network is the peer liveness and health manager. All methods are safe
// for concurrent use.
type Network struct {
	mu sync.Mutex

	me               ID
	qualityThreshold float64
	actions          ExternalActions
	clock            Clock
	metrics          Metrics
	quirks           Quirks

	entries  map[ID]Status
	ignored  map[ID]int64 // peer -> millisecond timestamp entering ignore
	excluded map[ID]struct{}

	goodPublic, goodNonPublic, badPublic, badNonPublic map[ID]struct{}

	lastHealth Health
}

// New builds a Network for the local peer me. qualityThreshold must be at
// least BadQuality; New panics otherwise, since such a threshold is a
// misconfiguration, not a runtime condition.
func New(me ID, qualityThreshold float64, actions ExternalActions, opts ...Option) *Network {
	if qualityThreshold < BadQuality {
		panic(fmt.Sprintf("peer: quality threshold %v is below the minimum %v", qualityThreshold, BadQuality))
	}
	n := &Network{
		me:               me,
		qualityThreshold: qualityThreshold,
		actions:          actions,
		clock:            SystemClock{},
		quirks:           DefaultQuirks(),
		entries:          make(map[ID]Status),
		ignored:          make(map[ID]int64),
		excluded:         map[ID]struct{}{me: {}},
		goodPublic:       make(map[ID]struct{}),
		goodNonPublic:    make(map[ID]struct{}),
		badPublic:        make(map[ID]struct{}),
		badNonPublic:     make(map[ID]struct{}),
		lastHealth:       HealthUnknown,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Has reports whether id is currently tracked.
func (n *Network) Has(id ID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.entries[id]
	return ok
}

// Length returns the number of tracked peers.
func (n *Network) Length() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.entries)
}

// Health returns the last computed aggregate health.
func (n *Network) Health() Health {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastHealth
}

// GetPeerStatus returns a snapshot of id's tracked status, with IgnoredAt
// filled in from the current ignore set.
func (n *Network) GetPeerStatus(id ID) (Status, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.entries[id]
	if !ok {
		return Status{}, false
	}
	return n.withIgnoredAt(s), true
}

// withIgnoredAt returns a copy of s with IgnoredAt set from the current
// ignore set. Callers must hold n.mu.
func (n *Network) withIgnoredAt(s Status) Status {
	if since, ok := n.ignored[s.Peer]; ok {
		s.IgnoredAt = &since
	} else {
		s.IgnoredAt = nil
	}
	return s
}

// Add registers a newly observed peer. It is a no-op if id is already
// tracked, is the local peer, or is currently ignored (unless the ignore
// window has elapsed, in which case the peer is re-admitted).
func (n *Network) Add(id ID, origin Origin) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.entries[id]; ok {
		return
	}
	if _, ok := n.excluded[id]; ok {
		return
	}
	if since, ok := n.ignored[id]; ok {
		if n.ignoreExpired(since) {
			delete(n.ignored, id)
		} else {
			return
		}
	}

	entry := Status{
		Peer:     id,
		Origin:   origin,
		Quality:  0,
		Backoff:  MinBackoff,
		LastSeen: 0,
		IsPublic: n.safeIsPublic(id),
	}
	n.classify(entry)
	n.refreshHealth()
	n.entries[id] = entry
}

// Remove evicts id from the manager entirely. This does not recompute
// Health or fire any callback: a peer going away does not, by itself,
// change how healthy the rest of the network looks. It also does not
// clear id from the ignore set, so a peer removed mid-ignore-window stays
// un-addable until the window elapses -- the reference implementation
// this is grounded on leaves this as an open TODO rather than a decided
// behavior, so it is preserved rather than guessed at.
func (n *Network) Remove(id ID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pruneFromBuckets(id)
	delete(n.entries, id)
}

// Update folds the outcome of one heartbeat into id's tracked status. It
// is a no-op for peers that are not tracked.
//
// On success, quality moves up by QualityStep (capped at 1.0) and backoff
// resets to MinBackoff.
//
// On failure, quality moves down by QualityStep (floored at 0) and
// backoff is recomputed per quirks.LiteralBackoffFormula. Three quality
// thresholds are then checked, lowest first, and the first that matches
// applies:
//   - below half of QualityStep: the peer is evicted outright
//     (CloseConnection fires, the entry is dropped). Its ignored-set
//     timestamp, if any, is left untouched: an already-ignored peer
//     that fails once more stays unaddable until the original
//     IgnoreTimeframe window elapses, rather than being immediately
//     re-admittable the instant it is evicted.
//   - below BadQuality: the peer is marked ignored. The mutated status
//     (incremented heartbeat count, new quality/backoff/last-seen) is
//     deliberately NOT written back to the tracked entry -- this
//     reproduces the reference implementation's behavior, where the
//     in-flight clone is discarded once the peer is routed into the
//     ignore set. See DESIGN.md.
//   - below the configured quality threshold: OnPeerOffline fires, but
//     the entry is still written back and health still recomputed.
func (n *Network) Update(id ID, result HeartbeatResult) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entry, ok := n.entries[id]
	if !ok {
		log.WithField("peer", peerfmt.ShortID(id.Bytes())).Info("update for untracked peer ignored")
		return
	}

	entry.HeartbeatsSent++

	if result.Ok() {
		entry.LastSeen = result.Timestamp().UnixMilli()
		entry.HeartbeatsSucceeded++
		entry.Backoff = MinBackoff
		entry.Quality = clampQuality(entry.Quality + QualityStep)
		n.classify(entry)
		n.refreshHealth()
		n.entries[id] = entry
		return
	}

	entry.LastSeen = n.clock.Now().UnixMilli()
	entry.Backoff = n.nextBackoff(entry.Backoff)
	entry.Quality = clampQuality(entry.Quality - QualityStep)

	switch {
	case entry.Quality < QualityStep/2:
		n.safeCloseConnection(id)
		n.pruneFromBuckets(id)
		delete(n.entries, id)
		return

	case entry.Quality < BadQuality:
		n.ignored[id] = n.clock.Now().UnixMilli()
		return

	case entry.Quality < n.qualityThreshold:
		n.safeOnPeerOffline(id)
	}

	n.classify(entry)
	n.refreshHealth()
	n.entries[id] = entry
}

func (n *Network) nextBackoff(current float64) float64 {
	pow := math.Pow(current, BackoffExponent)
	if n.quirks.LiteralBackoffFormula {
		return math.Max(MaxBackoff, pow)
	}
	return math.Min(MaxBackoff, pow)
}

func (n *Network) ignoreExpired(since int64) bool {
	return since+IgnoreTimeframe.Milliseconds() < n.clock.Now().UnixMilli()
}

// NextPingFor computes the earliest time id should be pinged again, per
// its current backoff. The second return is false if id is not tracked.
func (n *Network) NextPingFor(id ID) (time.Time, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	entry, ok := n.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return nextPing(entry), true
}

func nextPing(entry Status) time.Time {
	pow := math.Pow(entry.Backoff, BackoffExponent)
	delayMs := int64(float64(MinDelay.Milliseconds()) * pow)
	if capMs := MaxDelay.Milliseconds(); delayMs > capMs {
		delayMs = capMs
	}
	return entry.lastSeenTime().Add(time.Duration(delayMs) * time.Millisecond)
}

// FindPeersToPing returns every tracked peer whose next ping falls before
// threshold, ordered by ascending last-seen time (peers seen longest ago
// come first). Ties are broken arbitrarily.
func (n *Network) FindPeersToPing(threshold time.Time) []ID {
	n.mu.Lock()
	defer n.mu.Unlock()

	due := make([]ID, 0, len(n.entries))
	for id, entry := range n.entries {
		if nextPing(entry).Before(threshold) {
			due = append(due, id)
		}
	}
	slices.SortFunc(due, func(a, b ID) bool {
		return n.entries[a].LastSeen < n.entries[b].LastSeen
	})
	return due
}

// Filter returns every tracked peer id whose Status satisfies predicate.
// Each Status passed to predicate has IgnoredAt filled in from the current
// ignore set.
func (n *Network) Filter(predicate func(Status) bool) []ID {
	n.mu.Lock()
	defer n.mu.Unlock()

	var matched []ID
	for _, entry := range n.entries {
		if predicate(n.withIgnoredAt(entry)) {
			matched = append(matched, entry.Peer)
		}
	}
	return matched
}

// refreshHealth recomputes Health from the current bucket population,
// firing OnNetworkHealthChange if it moved, and republishes the metrics
// on every call.
func (n *Network) refreshHealth() {
	counts := n.counts()
	health := deriveHealth(counts, func() bool { return n.safeIsPublic(n.me) })

	if health != n.lastHealth {
		log.WithFields(log.Fields{
			"from": n.lastHealth,
			"to":   health,
		}).Info("peer network health changed")
		old := n.lastHealth
		n.lastHealth = health
		n.safeOnNetworkHealthChange(old, health)
	}

	if n.metrics.NumPeers != nil {
		n.metrics.NumPeers.Set(float64(counts.total()))
	}
	if n.metrics.PeersByQuality != nil {
		n.metrics.PeersByQuality.Set("public", "high", float64(counts.goodPublic))
		n.metrics.PeersByQuality.Set("public", "low", float64(counts.badPublic))
		n.metrics.PeersByQuality.Set("nonPublic", "high", float64(counts.goodNonPublic))
		n.metrics.PeersByQuality.Set("nonPublic", "low", float64(counts.badNonPublic))
	}
	if n.metrics.NetworkHealth != nil {
		n.metrics.NetworkHealth.Set(float64(n.lastHealth))
	}
}

func (n *Network) safeIsPublic(id ID) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("peer", peerfmt.ShortID(id.Bytes())).Errorf("IsPublic panicked: %v", r)
			result = false
		}
	}()
	return n.actions.IsPublic(id)
}

func (n *Network) safeCloseConnection(id ID) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("peer", peerfmt.ShortID(id.Bytes())).Errorf("CloseConnection panicked: %v", r)
		}
	}()
	n.actions.CloseConnection(id)
}

func (n *Network) safeOnPeerOffline(id ID) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("peer", peerfmt.ShortID(id.Bytes())).Errorf("OnPeerOffline panicked: %v", r)
		}
	}()
	n.actions.OnPeerOffline(id)
}

func (n *Network) safeOnNetworkHealthChange(old, current Health) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("OnNetworkHealthChange panicked: %v", r)
		}
	}()
	n.actions.OnNetworkHealthChange(old, current)
}
