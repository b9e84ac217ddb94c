package sitechat

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/castlebay/sitechat/browse"
	"github.com/castlebay/sitechat/chunk"
	"github.com/castlebay/sitechat/crawl"
	"github.com/castlebay/sitechat/embed"
	"github.com/castlebay/sitechat/genai"
)

// Config configures the sitechat service.
type Config struct {
	// SeedURL is the site root to crawl and index. Empty disables the
	// lazy indexing trigger; retrieval then works against whatever the
	// store already holds.
	SeedURL string `yaml:"seed_url"`

	// CrawlDepth is how many link hops to follow from the seed.
	CrawlDepth int `yaml:"crawl_depth"`

	// CrawlWorkers bounds concurrent page fetches during the crawl.
	CrawlWorkers int `yaml:"crawl_workers"`

	// CrawlAllowPrivate lets the seed point at a private or loopback
	// address, for indexing a local or staging deployment of the site.
	CrawlAllowPrivate bool `yaml:"crawl_allow_private"`

	// TopK is how many chunks retrieval feeds into the prompt.
	TopK int `yaml:"top_k"`

	// SystemPrompt is the template prepended to every conversation.
	// Opaque to the service.
	SystemPrompt string `yaml:"system_prompt"`

	// MaxBodyBytes caps inbound POST bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	Chunk      chunk.Options     `yaml:"chunk"`
	Embed      embed.Config      `yaml:"embed"`
	EmbedRetry embed.RetryConfig `yaml:"embed_retry"`
	GenAI      genai.Config      `yaml:"genai"`
	Browser    browse.Config     `yaml:"browser"`
}

const defaultSystemPrompt = "You are a helpful customer support assistant for this website. " +
	"Answer using the provided site documentation when it is relevant. " +
	"If you do not know the answer, say so and suggest contacting support."

func (c *Config) defaults() {
	if c.CrawlDepth <= 0 {
		c.CrawlDepth = 2
	}
	if c.CrawlWorkers <= 0 {
		c.CrawlWorkers = 4
	}
	if c.TopK <= 0 {
		c.TopK = 5
	}
	if c.SystemPrompt == "" {
		c.SystemPrompt = defaultSystemPrompt
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 64 * 1024
	}
	if c.GenAI.Timeout <= 0 {
		c.GenAI.Timeout = 60 * time.Second
	}
}

// crawlOptions projects the config into crawl options.
func (c *Config) crawlOptions() crawl.Options {
	return crawl.Options{
		MaxDepth:     c.CrawlDepth,
		Workers:      c.CrawlWorkers,
		AllowPrivate: c.CrawlAllowPrivate,
	}
}

// LoadConfig reads a YAML config file. A missing path yields an empty
// config so env-only deployments need no file at all.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("sitechat: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("sitechat: parse config %s: %w", path, err)
	}
	return cfg, nil
}
