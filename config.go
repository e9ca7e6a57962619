package main

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultOutputDir = "_refs/articles"

// config is the resolved pipeline configuration. Flags win over an explicit
// --config file, which wins over flag defaults.
type config struct {
	outputDir     string
	width         int
	slugLength    int
	format        bodyFormat
	timeout       time.Duration
	userAgent     string
	proxy         string
	maxBytes      int64
	keywordCount  int
	summaryLength int
}

// configFlags pairs viper keys with the flags that feed them.
var configFlags = map[string]string{
	"output_dir":         "output-dir",
	"width":              "width",
	"slug_length":        "slug-length",
	"format":             "format",
	"timeout":            "timeout",
	"user_agent":         "user-agent",
	"proxy":              "proxy",
	"max_response_bytes": "max-response-bytes",
	"keywords":           "keywords",
	"summary_sentences":  "summary-sentences",
}

func registerConfigFlags(flags *pflag.FlagSet) {
	flags.StringP("output-dir", "o", defaultOutputDir, "directory the article file is written to")
	flags.Int("width", defaultWrapWidth, "wrap body text at this column (0 disables wrapping)")
	flags.Int("slug-length", defaultSlugLength, "maximum length of the file name derived from the title")
	flags.String("format", string(formatText), "body format: text or markdown")
	flags.Duration("timeout", 30*time.Second, "HTTP fetch timeout")
	flags.String("user-agent", defaultUA, "HTTP User-Agent header")
	flags.String("proxy", "", "HTTP proxy URL (disables TLS fingerprinting)")
	flags.Int64("max-response-bytes", defaultMaxResponseBytes, "reject pages larger than this (0 for no limit)")
	flags.Int("keywords", defaultKeywordCount, "number of keywords to extract")
	flags.Int("summary-sentences", defaultSummaryLength, "number of sentences in the generated summary")
}

func bindConfigFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range configFlags {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("binding --%s: %w", name, err)
		}
	}
	return nil
}

// loadConfig reads cfgFile, when given, and resolves the configuration.
// No search paths and no environment variables are consulted.
func loadConfig(v *viper.Viper, cfgFile string) (config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	cfg := config{
		outputDir:     v.GetString("output_dir"),
		width:         v.GetInt("width"),
		slugLength:    v.GetInt("slug_length"),
		format:        bodyFormat(v.GetString("format")),
		timeout:       v.GetDuration("timeout"),
		userAgent:     v.GetString("user_agent"),
		proxy:         v.GetString("proxy"),
		maxBytes:      v.GetInt64("max_response_bytes"),
		keywordCount:  v.GetInt("keywords"),
		summaryLength: v.GetInt("summary_sentences"),
	}
	if err := cfg.validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func (c config) validate() error {
	switch {
	case c.outputDir == "":
		return fmt.Errorf("output directory must not be empty")
	case c.format != formatText && c.format != formatMarkdown:
		return fmt.Errorf("unknown format %q (want text or markdown)", c.format)
	case c.width < 0:
		return fmt.Errorf("width must not be negative")
	case c.slugLength <= 0:
		return fmt.Errorf("slug length must be positive")
	case c.timeout <= 0:
		return fmt.Errorf("timeout must be positive")
	case c.keywordCount < 0 || c.summaryLength < 0:
		return fmt.Errorf("keyword and summary counts must not be negative")
	}
	return nil
}

func (c config) fetchOpts() fetchOpts {
	return fetchOpts{
		timeout:   c.timeout,
		userAgent: c.userAgent,
		proxy:     c.proxy,
		maxBytes:  c.maxBytes,
	}
}

func (c config) extractOpts() extractOpts {
	return extractOpts{
		format:        c.format,
		keywordCount:  c.keywordCount,
		summaryLength: c.summaryLength,
	}
}

func (c config) writeOpts() writeOpts {
	return writeOpts{
		dir:        c.outputDir,
		width:      c.width,
		slugLength: c.slugLength,
		format:     c.format,
	}
}
