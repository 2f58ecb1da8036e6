package model

import "time"

// Config is the complete coastwatch configuration.
// Field names double as YAML keys in ~/.coastwatch/config.yaml.
type Config struct {
	LLM          LLMConfig          `yaml:"llm"`
	Search       SearchConfig       `yaml:"search"`
	Clustering   ClusteringConfig   `yaml:"clustering"`
	Hotspots     HotspotConfig      `yaml:"hotspots"`
	Correlation  CorrelationConfig  `yaml:"correlation"`
	Verification VerificationConfig `yaml:"verification"`
	Cache        CacheConfig        `yaml:"cache"`
	Worker       WorkerConfig       `yaml:"worker"`
	Server       ServerConfig       `yaml:"server"`
	Redis        RedisConfig        `yaml:"redis"`
	Log          LogConfig          `yaml:"log"`
}

// LLMConfig configures the remote language-model endpoint.
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // openai (any OpenAI-compatible endpoint), anthropic, ollama, "" to disable
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"`
	BaseURL     string  `yaml:"base_url"`
	Timeout     int     `yaml:"timeout"` // seconds
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// SearchConfig configures the social search API.
type SearchConfig struct {
	URL              string  `yaml:"url"`
	Host             string  `yaml:"host"`
	APIKey           string  `yaml:"api_key,omitempty"`
	MaxQueries       int     `yaml:"max_queries"`
	MaxResults       int     `yaml:"max_results"`
	QueriesPerSecond float64 `yaml:"queries_per_second"`
	Timeout          int     `yaml:"timeout"` // seconds
	HTTPProxy        string  `yaml:"http_proxy,omitempty"`
	HTTPSProxy       string  `yaml:"https_proxy,omitempty"`
}

// ClusteringConfig configures report clustering.
type ClusteringConfig struct {
	RadiusKm float64 `yaml:"radius_km"`
}

// HotspotConfig configures hotspot detection and post relevance analysis.
type HotspotConfig struct {
	PostThreshold       int     `yaml:"post_threshold"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	AnalysisBatchSize   int     `yaml:"analysis_batch_size"`
}

// CorrelationConfig configures report correlation scoring.
type CorrelationConfig struct {
	MinScore        float64 `yaml:"min_score"`
	ClassifyWorkers int     `yaml:"classify_workers"`
	DisableLLM      bool    `yaml:"disable_llm"`
}

// VerificationConfig configures hotspot corroboration.
type VerificationConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RedditEnabled     bool    `yaml:"reddit_enabled"`
	NewsEnabled       bool    `yaml:"news_enabled"`
	RedditSearchURL   string  `yaml:"reddit_search_url"`
	NewsSearchURL     string  `yaml:"news_search_url"`
	MaxResults        int     `yaml:"max_results"`
	UserAgent         string  `yaml:"user_agent"`
	RespectRobots     bool    `yaml:"respect_robots"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Timeout           int     `yaml:"timeout"` // seconds

	// Outlet domains rated official or established; empty selects the built-in lists.
	OfficialDomains    []string `yaml:"official_domains,omitempty"`
	EstablishedDomains []string `yaml:"established_domains,omitempty"`
}

// CacheConfig configures the LLM result cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// WorkerConfig configures the background report queue.
type WorkerConfig struct {
	Workers   int           `yaml:"workers"`
	QueueSize int           `yaml:"queue_size"`
	LockTTL   time.Duration `yaml:"lock_ttl"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// RedisConfig enables the Redis report locker when URL is set.
type RedisConfig struct {
	URL string `yaml:"url,omitempty"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "deepseek/deepseek-chat",
			BaseURL:     "https://openrouter.ai/api/v1",
			Timeout:     30,
			MaxTokens:   500,
			Temperature: 0.1,
		},
		Search: SearchConfig{
			URL:              "https://twitter-api47.p.rapidapi.com/v2/search",
			Host:             "twitter-api47.p.rapidapi.com",
			MaxQueries:       3,
			MaxResults:       4,
			QueriesPerSecond: 0.5,
			Timeout:          15,
		},
		Clustering: ClusteringConfig{
			RadiusKm: 4.0,
		},
		Hotspots: HotspotConfig{
			PostThreshold:       20,
			ConfidenceThreshold: 0.75,
			AnalysisBatchSize:   10,
		},
		Correlation: CorrelationConfig{
			MinScore:        0.3,
			ClassifyWorkers: 4,
		},
		Verification: VerificationConfig{
			Enabled:           true,
			RedditEnabled:     true,
			NewsEnabled:       true,
			RedditSearchURL:   "https://www.reddit.com/search.json",
			NewsSearchURL:     "https://news.google.com/rss/search",
			MaxResults:        10,
			UserAgent:         "coastwatch/0.1 (disaster response research)",
			RespectRobots:     true,
			RequestsPerSecond: 1,
			Timeout:           10,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".coastwatch-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   24 * time.Hour,
		},
		Worker: WorkerConfig{
			Workers:   4,
			QueueSize: 64,
			LockTTL:   5 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
