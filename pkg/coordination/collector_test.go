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

package coordination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollectorAwaitsExpectedCount(t *testing.T) {
	c := NewCollector()
	c.Collect("job-1", 2)
	c.Submit("job-1", "worker-a", "result-a", nil)
	c.Submit("job-1", "worker-b", "result-b", nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := c.Await(ctx, "job-1")
	require.NoError(t, err, "unexpected error")
	if len(res.Values) != 2 || len(res.Errors) != 0 {
		t.Errorf("expected 2 values, 0 errors, got %+v", res)
	}
}

func TestCollectorAllowsPartialFailure(t *testing.T) {
	c := NewCollector()
	c.Collect("job-1", 2)
	c.Submit("job-1", "worker-a", "ok", nil)
	c.Submit("job-1", "worker-b", nil, errors.New("boom"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := c.Await(ctx, "job-1")
	require.NoError(t, err, "unexpected error")
	if len(res.Values) != 1 || len(res.Errors) != 1 {
		t.Errorf("expected 1 value and 1 error, got %+v", res)
	}
}

func TestCollectorAwaitContextCancellation(t *testing.T) {
	c := NewCollector()
	c.Collect("job-1", 2)
	c.Submit("job-1", "worker-a", "ok", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Await(ctx, "job-1")
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
