// Package config provides functionality for managing configuration options
// for the client using command-line flags, environment variables and an
// optional JSON file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// DefaultAPIURL is used when no API base URL is configured.
const DefaultAPIURL = "http://localhost:8080"

// Options holds the configuration values for the client.
type Options struct {
	// APIURL is the base URL of the profile API and OAuth2 endpoints.
	APIURL string `json:"api_url" validate:"required,http_url"`

	// Route is the location the shell starts on, e.g. "/" or "/profile".
	Route string `json:"route" validate:"required,startswith=/"`

	// SessionFile is where cookies are persisted between runs.
	// Empty disables persistence.
	SessionFile string `json:"session_file"`

	// CAFile is an optional PEM bundle used to verify the API certificate.
	CAFile string `json:"ca_file" validate:"omitempty,file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level" validate:"oneof=debug info warn error"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// ShowVersion prints build metadata and exits.
	ShowVersion bool `json:"-"`
}

func defaults() *Options {
	return &Options{
		APIURL:      DefaultAPIURL,
		Route:       "/",
		SessionFile: "session.json",
		LogLevel:    "info",
		Config:      "config.json",
	}
}

// Validate checks the option values.
func (o *Options) Validate() error {
	return validator.New(validator.WithRequiredStructEnabled()).Struct(o)
}

// Parse parses the process flags and environment. It terminates the
// process when the resulting configuration is invalid.
func Parse() *Options {
	opts, err := Load(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		log.Fatalf("invalid configuration: %v", err)
	}
	return opts
}

// Load builds Options from defaults, the JSON config file, args and the
// environment, in that order of precedence (later wins).
func Load(args []string, getenv func(string) string) (*Options, error) {
	options := defaults()

	// The config path has to be known before flags are applied on top of the
	// file, so flags are parsed twice.
	fs := newFlagSet(options)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
			if err := newFlagSet(options).Parse(args); err != nil {
				return nil, err
			}
		}
	}

	if apiURL := getenv("API_URL"); apiURL != "" {
		options.APIURL = apiURL
	}
	if route := getenv("PROFILE_ROUTE"); route != "" {
		options.Route = route
	}
	if sessionFile := getenv("SESSION_FILE"); sessionFile != "" {
		options.SessionFile = sessionFile
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}

	options.APIURL = strings.TrimRight(options.APIURL, "/")
	options.LogLevel = strings.ToLower(options.LogLevel)

	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

func newFlagSet(options *Options) *flag.FlagSet {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&options.APIURL, "url", options.APIURL, "profile API base URL")
	fs.StringVar(&options.Route, "route", options.Route, "initial route: / or /profile")
	fs.StringVar(&options.SessionFile, "session", options.SessionFile, "path to the persisted session cookies")
	fs.StringVar(&options.CAFile, "ca", options.CAFile, "path to CA cert for the API")
	fs.StringVar(&options.LogLevel, "log-level", options.LogLevel, "log level")
	fs.StringVar(&options.Config, "config", options.Config, "path to config file")
	fs.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	fs.BoolVar(&options.ShowVersion, "version", options.ShowVersion, "show build version and date")
	return fs
}
