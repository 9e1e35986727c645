package provider

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Endpoint is where requests for one model go.
type Endpoint struct {
	Model   string
	BaseURL string
	APIKey  string
}

// EndpointsFile maps model names to endpoints, loaded from YAML:
//
//	models:
//	  meta-llama/Llama-3.1-8B-Instruct:
//	    base_url: http://localhost:8000/v1
//	    api_key_env: VLLM_KEY
type EndpointsFile struct {
	Models map[string]EndpointEntry `yaml:"models"`
}

// EndpointEntry is one model's settings. APIKeyEnv names an environment variable and wins
// over an inline APIKey when the variable is set.
type EndpointEntry struct {
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// LoadEndpoints reads an endpoints YAML file.
func LoadEndpoints(path string) (EndpointsFile, error) {
	if path == "" {
		return EndpointsFile{}, errors.New("LoadEndpoints: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return EndpointsFile{}, fmt.Errorf("LoadEndpoints: read file: %w", err)
	}
	var f EndpointsFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return EndpointsFile{}, fmt.Errorf("LoadEndpoints: unmarshal: %w", err)
	}
	return f, nil
}

// ResolveOptions are the inputs to ResolveEndpoint. Lookup is usually os.Getenv.
type ResolveOptions struct {
	Model   string
	BaseURL string
	APIKey  string
	File    *EndpointsFile
	Lookup  func(string) string
}

// ResolveEndpoint picks base URL and key for a model. For each field the first non-empty
// source wins: explicit option, endpoints file, "<model>:url_base" / "<model>:api_key"
// variables, then OPENAI_BASE_URL / OPENAI_API_KEY.
func ResolveEndpoint(o ResolveOptions) (Endpoint, error) {
	if o.Model == "" {
		return Endpoint{}, errors.New("ResolveEndpoint: model is empty")
	}
	lookup := o.Lookup
	if lookup == nil {
		lookup = func(string) string { return "" }
	}
	var entry EndpointEntry
	if o.File != nil {
		entry = o.File.Models[o.Model]
	}
	fileKey := entry.APIKey
	if entry.APIKeyEnv != "" {
		if v := lookup(entry.APIKeyEnv); v != "" {
			fileKey = v
		}
	}

	ep := Endpoint{
		Model:   o.Model,
		BaseURL: firstNonEmpty(o.BaseURL, entry.BaseURL, lookup(o.Model+":url_base"), lookup("OPENAI_BASE_URL")),
		APIKey:  firstNonEmpty(o.APIKey, fileKey, lookup(o.Model+":api_key"), lookup("OPENAI_API_KEY")),
	}
	if ep.APIKey == "" {
		// A base URL without a key gets the "EMPTY" placeholder.
		if ep.BaseURL == "" {
			return Endpoint{}, fmt.Errorf("no API key for model %q (set OPENAI_API_KEY, %q, or pass -api-key)", o.Model, o.Model+":api_key")
		}
		ep.APIKey = "EMPTY"
	}
	return ep, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
