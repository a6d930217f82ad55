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
	"crypto/subtle"
	"net/http"
)

const proxyAuthHeader = "X-Proxy-Auth"

// checkAuth verifies the shared-secret proxy-auth header when secret is
// configured. An empty secret disables the check entirely.
func checkAuth(r *http.Request, secret string) bool {
	if secret == "" {
		return true
	}
	got := r.Header.Get(proxyAuthHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1
}
