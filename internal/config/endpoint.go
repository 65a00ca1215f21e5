package config

// EndpointConfig holds endpoint-specific configuration for a single
// autocomplete service. This allows customizing crawl behavior per base URL
// when the config file lists several targets.
type EndpointConfig struct {
	// Headers are custom HTTP headers to include in every request to this
	// endpoint (for example an API key header).
	Headers map[string]string `yaml:"headers,omitempty"`

	// Versions overrides the candidate list probed during version
	// discovery. Empty means the built-in candidates are used.
	Versions []string `yaml:"versions,omitempty"`

	// Limit overrides the global page limit for this endpoint.
	// If zero, the global PageLimit is used.
	Limit int `yaml:"limit,omitempty"`

	// Alphabet overrides the prefix alphabet for this endpoint.
	// Useful for services known to index only lowercase names.
	Alphabet string `yaml:"alphabet,omitempty"`

	// MaxPrefixLength overrides the frontier depth cap for this endpoint.
	// If zero, the global cap is used.
	MaxPrefixLength int `yaml:"maxPrefixLength,omitempty"`
}

// File represents the structure of the .lexharvest configuration file.
type File struct {
	// Endpoints maps base URLs to their endpoint-specific configurations.
	Endpoints map[string]EndpointConfig `yaml:"endpoints,omitempty"`

	// Defaults contains default endpoint configuration applied to all
	// endpoints unless overridden in the endpoint-specific configuration.
	Defaults EndpointConfig `yaml:"defaults,omitempty"`
}

// GetEndpointConfig returns the configuration for a specific base URL.
// It merges the endpoint-specific configuration with defaults.
func (cf *File) GetEndpointConfig(baseURL string) EndpointConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with endpoint-specific configuration if present
	if ec, ok := cf.Endpoints[baseURL]; ok {
		if len(ec.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range ec.Headers {
				result.Headers[k] = v
			}
		}
		if len(ec.Versions) > 0 {
			result.Versions = ec.Versions
		}
		if ec.Limit != 0 {
			result.Limit = ec.Limit
		}
		if ec.Alphabet != "" {
			result.Alphabet = ec.Alphabet
		}
		if ec.MaxPrefixLength != 0 {
			result.MaxPrefixLength = ec.MaxPrefixLength
		}
	}

	return result
}
