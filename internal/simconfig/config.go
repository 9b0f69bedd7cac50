// Package simconfig loads the simulator's hierarchical configuration: file
// defaults overridden by environment variables, per spec §6.5.
package simconfig

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration object, mirroring the keys named in
// spec §6.5.
type Config struct {
	Authentication AuthenticationConfig `yaml:"authentication"`
	Simulated      SimulatedConfig      `yaml:"simulated"`
	EntraID        EntraIDConfig        `yaml:"entra_id"`
	VectorSearch   VectorSearchConfig   `yaml:"vector_search_settings"`
	Lucene         LuceneConfig         `yaml:"lucene_settings"`
	Diagnostic     DiagnosticConfig     `yaml:"diagnostic_logging"`
	LocalEmbedding LocalEmbeddingConfig `yaml:"local_embedding_settings"`
	Production     bool                 `yaml:"production"`
}

type AuthenticationConfig struct {
	EnabledModes []string  `yaml:"enabled_modes"` // "apiKey" | "oidc"
	APIKey       APIKeyConfig `yaml:"api_key"`
}

type APIKeyConfig struct {
	AdminAPIKey string `yaml:"admin_api_key"`
	QueryAPIKey string `yaml:"query_api_key"`
}

type SimulatedConfig struct {
	SigningKey string `yaml:"signing_key"` // must be >= 32 chars
}

type EntraIDConfig struct {
	TenantID string `yaml:"tenant_id"`
	Audience string `yaml:"audience"`
}

type VectorSearchConfig struct {
	UseHNSW      bool               `yaml:"use_hnsw"`
	HNSW         HNSWConfig         `yaml:"hnsw_settings"`
	HybridSearch HybridSearchConfig `yaml:"hybrid_search_settings"`
}

type HNSWConfig struct {
	M                    int     `yaml:"m"`
	EfConstruction       int     `yaml:"ef_construction"`
	EfSearch             int     `yaml:"ef_search"`
	OversampleMultiplier float64 `yaml:"oversample_multiplier"`
	RandomSeed           int64   `yaml:"random_seed"`
}

type HybridSearchConfig struct {
	DefaultFusionMethod string  `yaml:"default_fusion_method"` // rrf | weighted
	DefaultVectorWeight float64 `yaml:"default_vector_weight"`
	DefaultTextWeight   float64 `yaml:"default_text_weight"`
	RRFK                int     `yaml:"rrf_k"`
}

type LuceneConfig struct {
	IndexPath string `yaml:"index_path"`
}

type DiagnosticConfig struct {
	Enabled                  bool `yaml:"enabled"`
	LogDocumentDetails       bool `yaml:"log_document_details"`
	LogSkillExecution        bool `yaml:"log_skill_execution"`
	LogSkillInputPayloads    bool `yaml:"log_skill_input_payloads"`
	LogSkillOutputPayloads   bool `yaml:"log_skill_output_payloads"`
	LogEnrichedDocumentState bool `yaml:"log_enriched_document_state"`
	LogFieldMappings         bool `yaml:"log_field_mappings"`
	MaxStringLogLength       int  `yaml:"max_string_log_length"`
	IncludeTimings           bool `yaml:"include_timings"`
}

type LocalEmbeddingConfig struct {
	ModelsDirectory     string `yaml:"models_directory"`
	DefaultModel        string `yaml:"default_model"`
	MaximumTokens       int    `yaml:"maximum_tokens"`
	NormalizeEmbeddings bool   `yaml:"normalize_embeddings"`
	PoolingMode         string `yaml:"pooling_mode"`
	AutoDownloadModels  bool   `yaml:"auto_download_models"`
	CaseSensitive       bool   `yaml:"case_sensitive"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Authentication: AuthenticationConfig{EnabledModes: []string{"apiKey"}},
		VectorSearch: VectorSearchConfig{
			UseHNSW: true,
			HNSW: HNSWConfig{
				M:                    16,
				EfConstruction:       200,
				EfSearch:             100,
				OversampleMultiplier: 3.0,
				RandomSeed:           -1,
			},
			HybridSearch: HybridSearchConfig{
				DefaultFusionMethod: "rrf",
				DefaultVectorWeight: 1.0,
				DefaultTextWeight:   1.0,
				RRFK:                60,
			},
		},
		Lucene: LuceneConfig{IndexPath: "./data/index"},
		Diagnostic: DiagnosticConfig{
			Enabled:            true,
			LogSkillExecution:  true,
			MaxStringLogLength: 256,
			IncludeTimings:     true,
		},
		LocalEmbedding: LocalEmbeddingConfig{
			ModelsDirectory:     "./data/models",
			MaximumTokens:       512,
			NormalizeEmbeddings: true,
			PoolingMode:         "mean",
			AutoDownloadModels:  true,
		},
	}
}

// Load builds configuration from defaults, then a YAML file in dir (if
// present), then environment variable overrides, matching the teacher's
// layered precedence (file < env, highest precedence last).
func Load(dir string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		if cfg.Production {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		// Development mode: report the problem and keep going.
		slog.Warn("invalid configuration", "error", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{"simulator.yaml", "simulator.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		c.mergeWith(&parsed)
		return nil
	}
	return nil
}

func (c *Config) mergeWith(other *Config) {
	if len(other.Authentication.EnabledModes) > 0 {
		c.Authentication.EnabledModes = other.Authentication.EnabledModes
	}
	if other.Authentication.APIKey.AdminAPIKey != "" {
		c.Authentication.APIKey.AdminAPIKey = other.Authentication.APIKey.AdminAPIKey
	}
	if other.Authentication.APIKey.QueryAPIKey != "" {
		c.Authentication.APIKey.QueryAPIKey = other.Authentication.APIKey.QueryAPIKey
	}
	if other.Simulated.SigningKey != "" {
		c.Simulated.SigningKey = other.Simulated.SigningKey
	}
	if other.EntraID.TenantID != "" {
		c.EntraID.TenantID = other.EntraID.TenantID
	}
	if other.EntraID.Audience != "" {
		c.EntraID.Audience = other.EntraID.Audience
	}
	c.VectorSearch = mergeVectorSearch(c.VectorSearch, other.VectorSearch)
	if other.Lucene.IndexPath != "" {
		c.Lucene.IndexPath = other.Lucene.IndexPath
	}
	c.Diagnostic = other.Diagnostic
	if other.LocalEmbedding.ModelsDirectory != "" {
		c.LocalEmbedding = other.LocalEmbedding
	}
	if other.Production {
		c.Production = true
	}
}

func mergeVectorSearch(base, other VectorSearchConfig) VectorSearchConfig {
	if other.HNSW.M != 0 {
		base.HNSW = other.HNSW
	}
	if other.HybridSearch.DefaultFusionMethod != "" {
		base.HybridSearch = other.HybridSearch
	}
	base.UseHNSW = other.UseHNSW || base.UseHNSW
	return base
}

// applyEnvOverrides applies the highest-precedence environment variable
// overrides, named after the spec's configuration keys with a SIMULATOR_
// prefix.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SIMULATOR_ADMIN_API_KEY"); v != "" {
		c.Authentication.APIKey.AdminAPIKey = v
	}
	if v := os.Getenv("SIMULATOR_QUERY_API_KEY"); v != "" {
		c.Authentication.APIKey.QueryAPIKey = v
	}
	if v := os.Getenv("SIMULATOR_SIGNING_KEY"); v != "" {
		c.Simulated.SigningKey = v
	}
	if v := os.Getenv("SIMULATOR_ENTRA_TENANT_ID"); v != "" {
		c.EntraID.TenantID = v
	}
	if v := os.Getenv("SIMULATOR_USE_HNSW"); v != "" {
		c.VectorSearch.UseHNSW = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("SIMULATOR_HNSW_EF_SEARCH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.VectorSearch.HNSW.EfSearch = n
		}
	}
	if v := os.Getenv("SIMULATOR_RRF_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.VectorSearch.HybridSearch.RRFK = n
		}
	}
	if v := os.Getenv("SIMULATOR_LUCENE_INDEX_PATH"); v != "" {
		c.Lucene.IndexPath = v
	}
	if v := os.Getenv("SIMULATOR_PRODUCTION"); v != "" {
		c.Production = strings.EqualFold(v, "true") || v == "1"
	}
}

// Validate checks the constraints spec §6.5 names explicitly (signing key
// length) plus basic consistency. Load fails on a validation error in
// production mode and logs it as a warning in development mode (§6.5).
func (c *Config) Validate() error {
	var problems []string

	if c.Simulated.SigningKey != "" && len(c.Simulated.SigningKey) < 32 {
		problems = append(problems, "simulated.signing_key must be at least 32 characters")
	}
	if c.VectorSearch.HNSW.M <= 0 {
		problems = append(problems, "vector_search_settings.hnsw_settings.m must be positive")
	}
	if c.VectorSearch.HybridSearch.RRFK <= 0 {
		problems = append(problems, "vector_search_settings.hybrid_search_settings.rrf_k must be positive")
	}
	if c.Lucene.IndexPath == "" {
		problems = append(problems, "lucene_settings.index_path must be set")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("configuration problems: %s", strings.Join(problems, "; "))
}
