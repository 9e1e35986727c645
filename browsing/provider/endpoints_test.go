package provider

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolveEndpoint_Precedence(t *testing.T) {
	file := &EndpointsFile{Models: map[string]EndpointEntry{
		"llama": {BaseURL: "http://file/v1", APIKey: "file-key", APIKeyEnv: "LLAMA_KEY"},
	}}
	env := envMap(map[string]string{
		"LLAMA_KEY":       "env-file-key",
		"llama:url_base":  "http://model-env/v1",
		"llama:api_key":   "model-env-key",
		"OPENAI_BASE_URL": "http://global/v1",
		"OPENAI_API_KEY":  "global-key",
	})

	ep, err := ResolveEndpoint(ResolveOptions{Model: "llama", BaseURL: "http://flag/v1", APIKey: "flag-key", File: file, Lookup: env})
	require.NoError(t, err)
	assert.Equal(t, Endpoint{Model: "llama", BaseURL: "http://flag/v1", APIKey: "flag-key"}, ep)

	ep, err = ResolveEndpoint(ResolveOptions{Model: "llama", File: file, Lookup: env})
	require.NoError(t, err)
	assert.Equal(t, "http://file/v1", ep.BaseURL)
	assert.Equal(t, "env-file-key", ep.APIKey)

	ep, err = ResolveEndpoint(ResolveOptions{Model: "llama", Lookup: env})
	require.NoError(t, err)
	assert.Equal(t, "http://model-env/v1", ep.BaseURL)
	assert.Equal(t, "model-env-key", ep.APIKey)

	ep, err = ResolveEndpoint(ResolveOptions{Model: "gpt-4o", Lookup: env})
	require.NoError(t, err)
	assert.Equal(t, "http://global/v1", ep.BaseURL)
	assert.Equal(t, "global-key", ep.APIKey)
}

func TestResolveEndpoint_KeyFallbacks(t *testing.T) {
	ep, err := ResolveEndpoint(ResolveOptions{Model: "m", BaseURL: "http://localhost:8000/v1"})
	require.NoError(t, err)
	assert.Equal(t, "EMPTY", ep.APIKey)

	_, err = ResolveEndpoint(ResolveOptions{Model: "m"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")

	_, err = ResolveEndpoint(ResolveOptions{})
	require.Error(t, err)
}

func TestLoadEndpoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "endpoints.yaml")
	doc := "models:\n  llama:\n    base_url: http://localhost:8000/v1\n    api_key_env: VLLM_KEY\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	f, err := LoadEndpoints(path)
	require.NoError(t, err)
	assert.Equal(t, EndpointEntry{BaseURL: "http://localhost:8000/v1", APIKeyEnv: "VLLM_KEY"}, f.Models["llama"])

	_, err = LoadEndpoints(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("models: [1, 2"), 0o644))
	_, err = LoadEndpoints(path)
	assert.Error(t, err)
}

func TestModelFlags(t *testing.T) {
	m := ModelFlags{Model: "default-model", Retries: 2}
	fs := flag.NewFlagSet("x", flag.ContinueOnError)
	m.Register(fs)
	require.NoError(t, fs.Parse([]string{"-model", "llama", "-base-url", "http://localhost:8000/v1", "-retries", "0"}))
	require.NoError(t, m.Validate())

	s, err := m.Sampler(envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, "llama", s.Model)
	assert.Equal(t, 1, s.Attempts)
	assert.NotNil(t, s.Client)

	_, err = ModelFlags{Model: "m", EndpointsPath: filepath.Join(t.TempDir(), "nope.yaml")}.Sampler(envMap(nil))
	assert.Error(t, err)

	assert.Error(t, ModelFlags{}.Validate())
	assert.Error(t, ModelFlags{Model: "m", Retries: -1}.Validate())
}
