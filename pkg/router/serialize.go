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
	"encoding/json"
	"fmt"
)

// armState is the flattened, JSON-serializable form of one arm. A and B
// are stored as flat float arrays so the round trip is exact.
type armState struct {
	Tier             Tier      `json:"tier"`
	Plays            int       `json:"plays"`
	CumulativeReward float64   `json:"cumulativeReward"`
	CumulativeCost   float64   `json:"cumulativeCost"`
	Alpha            float64   `json:"alpha"`
	Beta             float64   `json:"beta"`
	A                []float64 `json:"a"`
	B                []float64 `json:"b"`
}

// State is the full serializable snapshot of a Bandit.
type State struct {
	Arms             []armState `json:"arms"`
	TotalRequests    int        `json:"totalRequests"`
	TotalCost        float64    `json:"totalCost"`
	OpusBaselineCost float64    `json:"opusBaselineCost"`
}

// Serialize captures the bandit's full arm state, including A and b as
// flattened floats, so Deserialize can reproduce identical Stats().
func (bd *Bandit) Serialize() ([]byte, error) {
	bd.mu.RLock()
	defer bd.mu.RUnlock()

	st := State{
		Arms:             make([]armState, len(bd.arms)),
		TotalRequests:    bd.totalRequests,
		TotalCost:        bd.totalCost,
		OpusBaselineCost: bd.opusBaselineCost,
	}

	for i, a := range bd.arms {
		st.Arms[i] = armState{
			Tier:             a.tier,
			Plays:            a.plays,
			CumulativeReward: a.cumulativeReward,
			CumulativeCost:   a.cumulativeCost,
			Alpha:            a.alpha,
			Beta:             a.beta,
			A:                append([]float64(nil), a.a.data...),
			B:                append([]float64(nil), a.b...),
		}
	}

	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("serialize bandit state: %w", err)
	}
	return data, nil
}

// Deserialize restores a Bandit from bytes produced by Serialize, keeping
// the configured Config (exploration rate, costs, normalization knobs).
func Deserialize(data []byte, cfg Config) (*Bandit, error) {
	cfg.SetDefaults()

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("deserialize bandit state: %w", err)
	}

	bd := &Bandit{
		cfg:              cfg,
		arms:             make([]*arm, len(st.Arms)),
		totalRequests:    st.TotalRequests,
		totalCost:        st.TotalCost,
		opusBaselineCost: st.OpusBaselineCost,
	}

	for i, as := range st.Arms {
		m := &symMatrix{dim: contextDim, data: append([]float64(nil), as.A...)}
		bd.arms[i] = &arm{
			tier:             as.Tier,
			plays:            as.Plays,
			cumulativeReward: as.CumulativeReward,
			cumulativeCost:   as.CumulativeCost,
			alpha:            as.Alpha,
			beta:             as.Beta,
			a:                m,
			b:                append([]float64(nil), as.B...),
		}
	}

	return bd, nil
}
