package perf

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Plan files are YAML documents (JSON being valid YAML, .json plans load
// through the same path). The on-disk shape differs slightly from RunConfig:
// timeouts are duration strings and follow_redirects defaults to true.

type planRequest struct {
	Method          string            `yaml:"method"`
	Endpoint        string            `yaml:"endpoint"`
	Headers         map[string]string `yaml:"headers"`
	Params          map[string]string `yaml:"params"`
	Form            map[string]string `yaml:"form"`
	JSON            any               `yaml:"json"`
	Auth            *BasicAuth        `yaml:"auth"`
	Timeout         string            `yaml:"timeout"`
	FollowRedirects *bool             `yaml:"follow_redirects"`
	Insecure        bool              `yaml:"insecure"`
}

type planFile struct {
	Name                string        `yaml:"name"`
	BaseURL             string        `yaml:"base_url"`
	Requests            []planRequest `yaml:"requests"`
	Iterations          int           `yaml:"iterations"`
	Concurrent          bool          `yaml:"concurrent"`
	MaxWorkers          int           `yaml:"max_workers"`
	WarmupIterations    int           `yaml:"warm_up_iterations"`
	IncludeResponseData bool          `yaml:"include_response_data"`
	AuthToken           string        `yaml:"auth_token"`
}

// LoadPlan reads a test plan file and converts it into a RunConfig.
func LoadPlan(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan: %w", err)
	}
	return ParsePlan(data, path)
}

// ParsePlan parses raw plan bytes. The name argument is used in error
// messages only.
func ParsePlan(data []byte, name string) (*RunConfig, error) {
	var pf planFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", name, err)
	}
	if pf.BaseURL == "" {
		return nil, fmt.Errorf("plan %s: base_url is required", name)
	}
	if len(pf.Requests) == 0 {
		return nil, fmt.Errorf("plan %s: %w", name, ErrNoRequests)
	}

	cfg := &RunConfig{
		Name:                pf.Name,
		BaseURL:             pf.BaseURL,
		Iterations:          pf.Iterations,
		Concurrent:          pf.Concurrent,
		MaxWorkers:          pf.MaxWorkers,
		WarmupIterations:    pf.WarmupIterations,
		IncludeResponseData: pf.IncludeResponseData,
		AuthToken:           pf.AuthToken,
	}
	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("api_test_%d", time.Now().Unix())
	}

	for i, pr := range pf.Requests {
		spec, err := pr.toSpec()
		if err != nil {
			return nil, fmt.Errorf("plan %s: request %d: %w", name, i+1, err)
		}
		cfg.Requests = append(cfg.Requests, spec)
	}
	return cfg, nil
}

func (pr planRequest) toSpec() (RequestSpec, error) {
	if pr.Endpoint == "" {
		return RequestSpec{}, fmt.Errorf("endpoint is required")
	}
	spec := RequestSpec{
		Method:         pr.Method,
		Endpoint:       pr.Endpoint,
		Headers:        pr.Headers,
		Params:         pr.Params,
		Form:           pr.Form,
		JSONBody:       pr.JSON,
		Auth:           pr.Auth,
		FollowRedirect: true,
		Insecure:       pr.Insecure,
	}
	if spec.Method == "" {
		spec.Method = "GET"
	}
	if pr.FollowRedirects != nil {
		spec.FollowRedirect = *pr.FollowRedirects
	}
	if pr.Timeout != "" {
		d, err := time.ParseDuration(pr.Timeout)
		if err != nil {
			return RequestSpec{}, fmt.Errorf("invalid timeout %q: %w", pr.Timeout, err)
		}
		spec.Timeout = d
	}
	if len(spec.Form) > 0 && spec.JSONBody != nil {
		return RequestSpec{}, fmt.Errorf("form and json bodies are mutually exclusive")
	}
	return spec, nil
}

// FilterRequests keeps only the specs whose endpoint matches one of the
// given names. An empty filter keeps everything.
func (c *RunConfig) FilterRequests(endpoints []string) {
	if len(endpoints) == 0 {
		return
	}
	keep := make(map[string]bool, len(endpoints))
	for _, e := range endpoints {
		keep[e] = true
	}
	var filtered []RequestSpec
	for _, spec := range c.Requests {
		if keep[spec.Endpoint] {
			filtered = append(filtered, spec)
		}
	}
	c.Requests = filtered
}
