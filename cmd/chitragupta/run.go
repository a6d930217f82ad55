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

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/sriinnu/chitragupta-sub012/pkg/autonomy"
	"github.com/sriinnu/chitragupta-sub012/pkg/config"
	"github.com/sriinnu/chitragupta-sub012/pkg/httpclient"
	"github.com/sriinnu/chitragupta-sub012/pkg/llmproxy"
	"github.com/sriinnu/chitragupta-sub012/pkg/orchestrator"
	"github.com/sriinnu/chitragupta-sub012/pkg/session"
)

// RunCmd drives one orchestration run end to end: plan, branch, execute,
// validate, diff preview, commit.
type RunCmd struct {
	Request string `arg:"" help:"Natural-language description of the change to make."`

	Model    string   `help:"Model alias to resolve for planning and execution." default:"default"`
	PlanOnly bool     `help:"Stop after planning; never touch the working tree."`
	Dir      string   `help:"Working directory the git helper operates in." default:"."`
	AuditDB  string   `help:"Path to the session audit database." default:".chitragupta/audit.db"`
	Validate []string `help:"Shell command to run during the validate phase (repeatable); all must succeed. Omit to skip validation." sep:"none"`
}

func (c *RunCmd) Run(cli *CLI) error {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	resolver, err := cfg.Proxy.NewResolver()
	if err != nil {
		return fmt.Errorf("build model resolver: %w", err)
	}

	store, err := session.Open(c.AuditDB)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer store.Close()

	agent := &llmAgent{resolver: resolver, client: httpclient.New(), model: c.Model}

	ocfg := cfg.Orchestrator.ToOrchestratorConfig()
	if c.PlanOnly {
		ocfg.Mode = orchestrator.ModePlanOnly
	}

	orch := orchestrator.New(ocfg, agent, agent,
		orchestrator.NewShellValidator(c.Dir, c.Validate),
		orchestrator.WithGitHelper(orchestrator.NewShellGit(c.Dir)),
		orchestrator.WithSessionRecorder(store),
		orchestrator.WithToolDisabledChecker(autonomy.New(cfg.Autonomy.Options()...)),
	)

	result := orch.Run(context.Background(), c.Request)

	fmt.Println(result.Summary)
	if len(result.Commits) > 0 {
		fmt.Printf("commits: %s\n", strings.Join(result.Commits, ", "))
	}
	for _, e := range result.Errors {
		fmt.Fprintf(os.Stderr, "chitragupta: %s: %s (recoverable=%v)\n", e.Phase, e.Message, e.Recoverable)
	}
	if !result.Success {
		os.Exit(1)
	}
	return nil
}

// llmAgent is a minimal Planner and CodingAgent backed by the configured
// model resolver: it asks the model to decompose a request into plan
// steps and, per step, to describe the change. It never mutates the
// working tree itself — a coding agent wired to real tool execution is an
// external collaborator outside this module's scope, per
// orchestrator.CodingAgent's contract.
type llmAgent struct {
	resolver *llmproxy.Resolver
	client   *httpclient.Client
	model    string
}

func (a *llmAgent) Plan(ctx context.Context, request string) (*orchestrator.Plan, error) {
	content, err := a.complete(ctx, "Break the following request into a short numbered list of "+
		"concrete implementation steps, one per line, with no other prose:\n\n"+request)
	if err != nil {
		return nil, err
	}
	steps := parseSteps(content)
	if len(steps) == 0 {
		return nil, nil
	}
	return &orchestrator.Plan{Steps: steps, Complexity: orchestrator.ComplexityMedium}, nil
}

func (a *llmAgent) ExecuteStep(ctx context.Context, step string) (orchestrator.StepResult, error) {
	content, err := a.complete(ctx, "Describe, in prose, how you would implement this step of a "+
		"larger plan. Do not invent file contents:\n\n"+step)
	if err != nil {
		return orchestrator.StepResult{}, err
	}
	return orchestrator.StepResult{Step: step, Output: content}, nil
}

// complete resolves a.model, converts a single-turn user prompt into the
// upstream provider's wire format, and returns the response text.
func (a *llmAgent) complete(ctx context.Context, prompt string) (string, error) {
	resolved, err := a.resolver.Resolve(a.model)
	if err != nil {
		return "", err
	}
	converter, err := llmproxy.ConverterFor(resolved.Provider.Format)
	if err != nil {
		return "", err
	}
	req := &llmproxy.Request{
		Model:    a.model,
		Messages: []llmproxy.Message{{Role: "user", Content: prompt}},
	}
	body, err := converter.ToUpstream(req, resolved.Provider)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, resolved.Provider.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if resolved.Provider.APIKeyEnv != "" {
		if key := os.Getenv(resolved.Provider.APIKeyEnv); key != "" {
			httpReq.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("llm: upstream returned %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	neutral, err := converter.FromUpstream(respBody)
	if err != nil {
		return "", err
	}
	return neutral.Content, nil
}

// parseSteps strips numbering/bullet prefixes from a line-oriented plan
// response and drops blank lines.
func parseSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.)-* ")
		line = strings.TrimSpace(line)
		if line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}
