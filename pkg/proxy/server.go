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

package proxy

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sriinnu/chitragupta-sub012/pkg/observability"
)

// NewRouter builds a chi.Router with the proxy's endpoints mounted and
// OTel tracing + Prometheus metrics middleware wired the way the rest of
// this module instruments its HTTP surfaces. tracer and metrics may be nil.
func NewRouter(s *Server, tracer *observability.Tracer, metrics *observability.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(recoverMiddleware)
	r.Use(observability.HTTPMiddleware(tracer, metrics))
	s.Routes(r)
	return r
}

// recoverMiddleware turns a panicking handler into a 500 instead of
// crashing the listener, mirroring the dispatcher-level panic recovery
// used throughout this module's concurrent components.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeError(w, http.StatusInternalServerError, "", "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
