package internal

import (
	"fmt"
	"log/slog"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notehub/internal/notehub"
	"github.com/starford/notehub/internal/query"
	"github.com/starford/notehub/internal/search"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	API    APIConfig         `yaml:"api"`
	Query  QueryConfig       `yaml:"query"`
	Search SearchConfig      `yaml:"search"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}
	if err := c.Query.Validate(); err != nil {
		return err
	}
	return c.Search.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// APIConfig holds the remote notes API settings.
//
// Token is deliberately not validated: a missing token surfaces as an
// auth failure from the server on the first request.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

func absoluteURL(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}

// QueryConfig holds list query settings.
type QueryConfig struct {
	PerPage    int           `yaml:"per_page"`
	Retry      int           `yaml:"retry"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// Validate validates the query configuration.
func (c *QueryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.PerPage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&c.Retry, validation.Min(0), validation.Max(5)),
		validation.Field(&c.RetryDelay, validation.Min(time.Duration(0))),
	)
}

// SearchConfig holds search box settings.
type SearchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the search configuration.
func (c *SearchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Required, validation.Min(time.Millisecond)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		API: APIConfig{
			BaseURL: notehub.DefaultBaseURL,
			Timeout: 15 * time.Second,
		},
		Query: QueryConfig{
			PerPage:    query.DefaultPerPage,
			Retry:      query.DefaultRetry,
			RetryDelay: query.DefaultRetryDelay,
		},
		Search: SearchConfig{
			Debounce: search.DefaultQuiet,
		},
	}
}
