// Copyright 2022 Stock Parfait

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package av

import (
	"net/http"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stockparfait/errors"

	toml "github.com/pelletier/go-toml/v2"
)

// Config of a client. It is read from the environment and optionally from a
// TOML file, e.g.:
//
//   key = "YourSecretAlphaVantageKey"
//   url = "https://www.alphavantage.co"
type Config struct {
	APIKey  string        `env:"ALPHAVANTAGE_API_KEY" toml:"key"`
	BaseURL string        `env:"ALPHAVANTAGE_URL" toml:"url"` // default: URL
	Timeout time.Duration `env:"ALPHAVANTAGE_TIMEOUT" envDefault:"30s" toml:"-"`
}

// LoadConfig reads Config from the process environment and then, unless path
// is empty, from the TOML file. Values set in the file take precedence.
func LoadConfig(path string) (*Config, error) {
	return loadConfig(path, env.Options{})
}

func loadConfig(path string, opts env.Options) (*Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return nil, errors.Annotate(err, "failed to parse environment")
	}
	if path == "" {
		return &c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", path)
	}
	defer f.Close()

	var fc Config
	if err := toml.NewDecoder(f).Decode(&fc); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", path)
	}
	if fc.APIKey != "" {
		c.APIKey = fc.APIKey
	}
	if fc.BaseURL != "" {
		c.BaseURL = fc.BaseURL
	}
	return &c, nil
}

// Client creates a new client as configured. It requires a non-empty API key.
func (c *Config) Client() (*Client, error) {
	if c.APIKey == "" {
		return nil, errors.Reason(
			"API key is not set: export ALPHAVANTAGE_API_KEY or set key in the config file")
	}
	client := NewClient(c.APIKey)
	if c.BaseURL != "" {
		client = client.WithBaseURL(c.BaseURL)
	}
	if c.Timeout > 0 {
		client = client.WithTransport(&HTTPTransport{Client: &http.Client{Timeout: c.Timeout}})
	}
	return client, nil
}

// NewClientFromEnv creates a client configured by the environment variables
// ALPHAVANTAGE_API_KEY (required), ALPHAVANTAGE_URL and ALPHAVANTAGE_TIMEOUT.
func NewClientFromEnv() (*Client, error) {
	c, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	return c.Client()
}
