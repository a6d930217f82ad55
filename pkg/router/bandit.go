// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"math"
	"sync"
)

// arm holds one tier's LinUCB and Beta-posterior state. Only RecordOutcome
// mutates an arm; Classify only reads.
type arm struct {
	tier Tier

	plays          int
	cumulativeReward float64
	cumulativeCost   float64

	alpha float64 // Beta posterior alpha (>= 1)
	beta  float64 // Beta posterior beta (>= 1)

	a *symMatrix // D x D, SPD
	b []float64  // D
}

func newArm(t Tier) *arm {
	return &arm{
		tier:  t,
		alpha: 1,
		beta:  1,
		a:     newIdentity(contextDim),
		b:     make([]float64, contextDim),
	}
}

// Decision is the result of a single Classify call.
type Decision struct {
	Tier        Tier
	Confidence  float64
	CostEstimate float64
	Rationale   string
	Context     TuriyaContext
	ArmIndex    int
}

// Config tunes the bandit's exploration rate and cost model.
type Config struct {
	// Alpha is the LinUCB exploration coefficient.
	Alpha float64 `yaml:"alpha,omitempty"`
	// TierCosts gives the unit cost charged to each tier's estimate.
	TierCosts TierCosts `yaml:"tier_costs,omitempty"`
	// MaxConversationDepth and MaxMemoryHits normalize ConversationDepth
	// and MemoryLoad context dimensions.
	MaxConversationDepth int `yaml:"max_conversation_depth,omitempty"`
	MaxMemoryHits        int `yaml:"max_memory_hits,omitempty"`
}

// SetDefaults fills unset Config fields with their defaults.
func (c *Config) SetDefaults() {
	if c.Alpha == 0 {
		c.Alpha = 1.0
	}
	if c.TierCosts == nil {
		c.TierCosts = DefaultTierCosts()
	}
	if c.MaxConversationDepth == 0 {
		c.MaxConversationDepth = 20
	}
	if c.MaxMemoryHits == 0 {
		c.MaxMemoryHits = 10
	}
}

// Bandit is a LinUCB contextual bandit with one arm per Tier, plus a
// heuristic cold-start path used before enough plays have accumulated.
type Bandit struct {
	mu   sync.RWMutex
	cfg  Config
	arms []*arm

	totalRequests     int
	totalCost         float64
	opusBaselineCost  float64
}

// New creates a Bandit with one arm per tier.
func New(cfg Config) *Bandit {
	cfg.SetDefaults()
	arms := make([]*arm, len(tiers))
	for i, t := range tiers {
		arms[i] = newArm(t)
	}
	return &Bandit{cfg: cfg, arms: arms}
}

// coldStartThreshold is the total play count below which Classify uses the
// heuristic path instead of LinUCB scoring.
func (bd *Bandit) coldStartThreshold() int {
	return len(bd.arms) * 2
}

// Classify picks a tier for the given context, using LinUCB once enough
// outcomes have been recorded, or a heuristic score during cold start.
func (bd *Bandit) Classify(ctx TuriyaContext) Decision {
	bd.mu.RLock()
	defer bd.mu.RUnlock()

	totalPlays := 0
	for _, a := range bd.arms {
		totalPlays += a.plays
	}

	if totalPlays < bd.coldStartThreshold() {
		return bd.coldStartDecision(ctx)
	}
	return bd.linucbDecision(ctx)
}

func (bd *Bandit) coldStartDecision(ctx TuriyaContext) Decision {
	score := 0.25*ctx.Complexity + 0.2*ctx.Precision + 0.2*ctx.CodeRatio + 0.2*ctx.Creativity + 0.15*ctx.Urgency

	var tier Tier
	switch {
	case score < 0.1:
		tier = TierNoLLM
	case score < 0.25:
		tier = TierHaiku
	case score < 0.55:
		tier = TierSonnet
	default:
		tier = TierOpus
	}

	if ctx.Complexity > 0.7 {
		tier = TierOpus
	}
	if ctx.Urgency > 0.3 && tier == TierNoLLM {
		tier = TierHaiku
	}

	idx := tierIndex(tier)
	cost := bd.cfg.TierCosts[tier]

	return Decision{
		Tier:         tier,
		Confidence:   0.5,
		CostEstimate: cost,
		Rationale:    "cold-start heuristic",
		Context:      ctx,
		ArmIndex:     idx,
	}
}

func (bd *Bandit) linucbDecision(ctx TuriyaContext) Decision {
	x := ctx.vector()

	bestIdx := 0
	bestScore := -1.0
	bestBonus := 0.0

	for i, a := range bd.arms {
		theta := a.a.solve(a.b)
		expected := dot(x, theta)
		bonus := bd.cfg.Alpha * sqrtNonNeg(a.a.quadForm(x))
		score := expected + bd.cfg.Alpha*bonus

		if score > bestScore {
			bestScore = score
			bestIdx = i
			bestBonus = bonus
		}
	}

	confidence := 1 - bestBonus/(bestBonus+1)
	tier := bd.arms[bestIdx].tier

	return Decision{
		Tier:         tier,
		Confidence:   confidence,
		CostEstimate: bd.cfg.TierCosts[tier],
		Rationale:    "linucb",
		Context:      ctx,
		ArmIndex:     bestIdx,
	}
}

// RecordOutcome feeds a reward in [0,1] back into the arm the decision
// selected, updating its LinUCB state, Beta posterior and counters.
// Rewards outside [0,1] are clamped rather than rejected.
func (bd *Bandit) RecordOutcome(d Decision, reward float64) {
	bd.mu.Lock()
	defer bd.mu.Unlock()

	reward = clamp01(reward)
	if d.ArmIndex < 0 || d.ArmIndex >= len(bd.arms) {
		return
	}

	a := bd.arms[d.ArmIndex]
	x := d.Context.vector()

	a.a.addOuterProduct(x)
	for i := range a.b {
		a.b[i] += reward * x[i]
	}

	a.alpha += reward
	a.beta += 1 - reward
	a.plays++
	a.cumulativeReward += reward
	a.cumulativeCost += d.CostEstimate

	bd.totalRequests++
	bd.totalCost += d.CostEstimate
	bd.opusBaselineCost += bd.cfg.TierCosts[TierOpus]
}

// TierStats summarizes one arm for Stats.
type TierStats struct {
	Tier      Tier
	Calls     int
	TotalCost float64
	AvgReward float64
	Alpha     float64
	Beta      float64
}

// Stats aggregates per-tier and overall bandit statistics.
type Stats struct {
	Tiers            []TierStats
	TotalRequests    int
	TotalCost        float64
	OpusBaselineCost float64
	CostSavings      float64
	SavingsPercent   float64
}

// Stats returns a snapshot of current bandit statistics.
func (bd *Bandit) Stats() Stats {
	bd.mu.RLock()
	defer bd.mu.RUnlock()

	tierStats := make([]TierStats, len(bd.arms))
	for i, a := range bd.arms {
		avg := 0.0
		if a.plays > 0 {
			avg = a.cumulativeReward / float64(a.plays)
		}
		tierStats[i] = TierStats{
			Tier:      a.tier,
			Calls:     a.plays,
			TotalCost: a.cumulativeCost,
			AvgReward: avg,
			Alpha:     a.alpha,
			Beta:      a.beta,
		}
	}

	savings := bd.opusBaselineCost - bd.totalCost
	savingsPct := 0.0
	if bd.opusBaselineCost > 0 {
		savingsPct = 100 * savings / bd.opusBaselineCost
	}

	return Stats{
		Tiers:            tierStats,
		TotalRequests:    bd.totalRequests,
		TotalCost:        bd.totalCost,
		OpusBaselineCost: bd.opusBaselineCost,
		CostSavings:      savings,
		SavingsPercent:   savingsPct,
	}
}

func sqrtNonNeg(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}
