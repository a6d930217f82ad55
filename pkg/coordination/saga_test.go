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
)

func TestSagaCompensatesInReverseOnFailure(t *testing.T) {
	var order []string

	saga := &Saga{Steps: []SagaStep{
		{
			Name:       "step-1",
			Action:     func(context.Context) error { return nil },
			Compensate: func() { order = append(order, "undo-1") },
		},
		{
			Name:       "step-2",
			Action:     func(context.Context) error { return nil },
			Compensate: func() { order = append(order, "undo-2") },
		},
		{
			Name:   "step-3",
			Action: func(context.Context) error { return errors.New("step 3 failed") },
		},
	}}

	err := saga.Run(context.Background())
	if err == nil {
		t.Fatal("expected saga to fail on step-3")
	}
	if len(order) != 2 || order[0] != "undo-2" || order[1] != "undo-1" {
		t.Errorf("expected reverse-order compensation, got %v", order)
	}
}

func TestSagaSucceedsWithoutCompensation(t *testing.T) {
	var compensated bool
	saga := &Saga{Steps: []SagaStep{
		{
			Name:       "step-1",
			Action:     func(context.Context) error { return nil },
			Compensate: func() { compensated = true },
		},
	}}

	if err := saga.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if compensated {
		t.Error("expected no compensation on success")
	}
}

func TestSagaCompensationPanicDoesNotStopOthers(t *testing.T) {
	var order []string
	saga := &Saga{Steps: []SagaStep{
		{
			Name:       "step-1",
			Action:     func(context.Context) error { return nil },
			Compensate: func() { order = append(order, "undo-1") },
		},
		{
			Name:       "step-2",
			Action:     func(context.Context) error { return nil },
			Compensate: func() { panic("compensation boom") },
		},
		{
			Name:   "step-3",
			Action: func(context.Context) error { return errors.New("fail") },
		},
	}}

	saga.Run(context.Background())
	if len(order) != 1 || order[0] != "undo-1" {
		t.Errorf("expected step-1 compensation to still run despite step-2 panic, got %v", order)
	}
}
