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

package llmproxy

import (
	"fmt"
	"strings"
)

// ErrAliasUnresolvable is returned when no provider/model pair can be
// derived from a requested model name; callers should surface this as a
// 400.
type ErrAliasUnresolvable struct {
	Requested string
}

func (e *ErrAliasUnresolvable) Error() string {
	return fmt.Sprintf("llmproxy: cannot resolve model alias %q to any provider", e.Requested)
}

// Resolved is the outcome of resolving a requested model name.
type Resolved struct {
	Provider Provider
	Model    string
}

// Resolver maps requested model names to a provider and upstream model
// name. Aliases are checked exact first, then fuzzy-contains, then the
// requested name is parsed as an explicit "provider/model" pair, and
// finally the first wildcard provider is used.
type Resolver struct {
	aliases   map[string]Resolved
	providers []Provider
}

// NewResolver builds a Resolver over the given providers. Aliases maps a
// short alias (e.g. "fast", "smart") to an explicit "provider/model" pair.
func NewResolver(providers []Provider, aliases map[string]string) (*Resolver, error) {
	r := &Resolver{
		aliases:   make(map[string]Resolved, len(aliases)),
		providers: providers,
	}
	for alias, target := range aliases {
		provider, model, err := splitProviderModel(target)
		if err != nil {
			return nil, fmt.Errorf("llmproxy: alias %q: %w", alias, err)
		}
		p, ok := findProviderByName(providers, provider)
		if !ok {
			return nil, fmt.Errorf("llmproxy: alias %q references unknown provider %q", alias, provider)
		}
		r.aliases[alias] = Resolved{Provider: p, Model: model}
	}
	return r, nil
}

// Resolve maps requested to a provider/model pair.
func (r *Resolver) Resolve(requested string) (Resolved, error) {
	if resolved, ok := r.aliases[requested]; ok {
		return resolved, nil
	}

	requestedLower := strings.ToLower(requested)
	for alias, resolved := range r.aliases {
		if strings.Contains(requestedLower, strings.ToLower(alias)) {
			return resolved, nil
		}
	}

	if provider, model, err := splitProviderModel(requested); err == nil {
		if p, ok := findProviderByName(r.providers, provider); ok {
			return Resolved{Provider: p, Model: model}, nil
		}
	}

	for _, p := range r.providers {
		if p.isWildcard() {
			return Resolved{Provider: p, Model: requested}, nil
		}
	}

	return Resolved{}, &ErrAliasUnresolvable{Requested: requested}
}

// splitProviderModel parses "provider/model" explicit syntax.
func splitProviderModel(s string) (provider, model string, err error) {
	idx := strings.Index(s, "/")
	if idx <= 0 || idx == len(s)-1 {
		return "", "", fmt.Errorf("not in provider/model syntax: %q", s)
	}
	return s[:idx], s[idx+1:], nil
}

func findProviderByName(providers []Provider, name string) (Provider, bool) {
	for _, p := range providers {
		if p.Name == name {
			return p, true
		}
	}
	return Provider{}, false
}
