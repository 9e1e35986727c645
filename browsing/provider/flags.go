package provider

import (
	"errors"
	"flag"
)

// ModelFlags are the endpoint flags every command shares.
type ModelFlags struct {
	Model         string
	BaseURL       string
	APIKey        string
	EndpointsPath string
	// Retries is how many times a rate-limited or failed request is retried (0 disables).
	Retries int
}

// Register binds the flags on fs, keeping the current field values as defaults.
func (m *ModelFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&m.Model, "model", m.Model, "Model name sent to the OpenAI-compatible endpoint")
	fs.StringVar(&m.BaseURL, "base-url", m.BaseURL, "Endpoint base URL (overrides -endpoints, <model>:url_base and OPENAI_BASE_URL)")
	fs.StringVar(&m.APIKey, "api-key", m.APIKey, "API key (overrides -endpoints, <model>:api_key and OPENAI_API_KEY)")
	fs.StringVar(&m.EndpointsPath, "endpoints", m.EndpointsPath, "Optional YAML file mapping models to base_url/api_key")
	fs.IntVar(&m.Retries, "retries", m.Retries, "Retries on rate-limit and server errors (0 disables, max 2)")
}

func (m ModelFlags) Validate() error {
	if m.Model == "" {
		return errors.New("missing -model")
	}
	if m.Retries < 0 {
		return errors.New("retries must be >= 0")
	}
	return nil
}

// SamplerFor resolves the endpoint for model and returns a ready sampler. lookup is usually os.Getenv.
func (m ModelFlags) SamplerFor(model string, lookup func(string) string) (ChatSampler, error) {
	var file *EndpointsFile
	if m.EndpointsPath != "" {
		f, err := LoadEndpoints(m.EndpointsPath)
		if err != nil {
			return ChatSampler{}, err
		}
		file = &f
	}
	ep, err := ResolveEndpoint(ResolveOptions{
		Model:   model,
		BaseURL: m.BaseURL,
		APIKey:  m.APIKey,
		File:    file,
		Lookup:  lookup,
	})
	if err != nil {
		return ChatSampler{}, err
	}
	client := NewClient(ep)
	return ChatSampler{Client: &client, Model: model, Attempts: m.Retries + 1}, nil
}

// Sampler is SamplerFor(m.Model, lookup).
func (m ModelFlags) Sampler(lookup func(string) string) (ChatSampler, error) {
	return m.SamplerFor(m.Model, lookup)
}
