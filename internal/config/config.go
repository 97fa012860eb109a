// Package config loads the service's process configuration (env vars
// plus an optional YAML file — grounded on the teacher's
// internal/config/config_test.go Load(path) entrypoint) and the C5
// ConfigBundle (meta-routing.json / routing-rules.json, embedded defaults
// when absent).
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jordigilh/intentrouter/pkg/types"
	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP bind address.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// CacheConfig configures C2.
type CacheConfig struct {
	URL string `yaml:"url"`
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Password string `yaml:"password"`
	TLS bool `yaml:"tls"`
	Disabled bool `yaml:"disabled"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	CommandTimeout time.Duration `yaml:"commandTimeout"`
}

// LLMConfig configures C3 (GEMINI_*/LLM_PROVIDER env vars, plus
// the Anthropic/Bedrock provider additions in the domain stack).
type LLMConfig struct {
	Provider string `yaml:"provider"`
	GeminiKey string `yaml:"geminiApiKey"`
	GeminiModel string `yaml:"geminiModel"`
	AnthropicKey string `yaml:"anthropicApiKey"`
	AnthropicModel string `yaml:"anthropicModel"`
	BedrockModelID string `yaml:"bedrockModelId"`
	BedrockRegion string `yaml:"bedrockRegion"`
}

// ManifestConfig configures C9/C10.
type ManifestConfig struct {
	Dir string `yaml:"dir"`
	HistoryDir string `yaml:"historyDir"`
	RefreshProfile string `yaml:"refreshProfile"`
	AutoApplyLowRisk bool `yaml:"autoApplyLowRisk"`
	DriftWarningThreshold float64 `yaml:"driftWarningThreshold"`
	DriftCriticalThreshold float64 `yaml:"driftCriticalThreshold"`
}

// RouterConfig configures C6 forwarding behavior.
type RouterConfig struct {
	ForwardEnabled bool `yaml:"forwardEnabled"`
}

// TelemetryConfig configures C8's snapshot cache TTL.
type TelemetryConfig struct {
	CacheTTLMillis int `yaml:"cacheTtlMillis"`
}

// AppConfig is the service's top-level process configuration.
type AppConfig struct {
	Server ServerConfig `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	ConfigDir string `yaml:"configDir"`
	Cache CacheConfig `yaml:"cache"`
	LLM LLMConfig `yaml:"llm"`
	Manifest ManifestConfig `yaml:"manifest"`
	Router RouterConfig `yaml:"router"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	ConfidenceThreshold float64 `yaml:"confidenceThreshold"`
}

// Default returns the built-in configuration before any file or env
// overlay is applied.
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{Port: "8080"},
		Logging: LoggingConfig{Level: "info"},
		Cache: CacheConfig{
			ConnectTimeout: 2 * time.Second,
			CommandTimeout: 1 * time.Second,
		},
		LLM: LLMConfig{Provider: "heuristic"},
		Manifest: ManifestConfig{
			Dir: "./manifests",
			HistoryDir: "./manifests/history",
			RefreshProfile: "balanced",
			AutoApplyLowRisk: false,
			DriftWarningThreshold: 0.4,
			DriftCriticalThreshold: 0.7,
		},
		Router: RouterConfig{ForwardEnabled: false},
		Telemetry: TelemetryConfig{CacheTTLMillis: 5 * 60 * 1000},
		ConfidenceThreshold: 0.5,
		ConfigDir: "./config",
	}
}

// Load reads an optional YAML file at path (skipped entirely when path is
// empty or the file does not exist) layered under Default(), then applies
// the environment variable overrides on top.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = parseBool(v)
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(key); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := os.LookupEnv(key); ok {
			if ms, err := strconv.Atoi(v); err == nil {
				*dst = time.Duration(ms) * time.Millisecond
			}
		}
	}

	str("PORT", &cfg.Server.Port)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("MANIFEST_DIR", &cfg.Manifest.Dir)
	str("MANIFEST_HISTORY_DIR", &cfg.Manifest.HistoryDir)
	str("CONFIG_DIR", &cfg.ConfigDir)
	integer("TELEMETRY_CACHE_TTL_MS", &cfg.Telemetry.CacheTTLMillis)
	float("CONFIDENCE_THRESHOLD", &cfg.ConfidenceThreshold)
	str("MANIFEST_REFRESH_PROFILE", &cfg.Manifest.RefreshProfile)
	boolean("AUTO_APPLY_LOW_RISK", &cfg.Manifest.AutoApplyLowRisk)
	float("DRIFT_WARNING_THRESHOLD", &cfg.Manifest.DriftWarningThreshold)
	float("DRIFT_CRITICAL_THRESHOLD", &cfg.Manifest.DriftCriticalThreshold)
	boolean("ROUTER_FORWARD_ENABLED", &cfg.Router.ForwardEnabled)

	str("REDIS_URL", &cfg.Cache.URL)
	str("REDIS_HOST", &cfg.Cache.Host)
	str("REDIS_PORT", &cfg.Cache.Port)
	str("REDIS_PASSWORD", &cfg.Cache.Password)
	boolean("REDIS_TLS", &cfg.Cache.TLS)
	boolean("REDIS_DISABLED", &cfg.Cache.Disabled)
	duration("REDIS_CONNECT_TIMEOUT", &cfg.Cache.ConnectTimeout)
	duration("REDIS_COMMAND_TIMEOUT", &cfg.Cache.CommandTimeout)

	str("GEMINI_API_KEY", &cfg.LLM.GeminiKey)
	str("GEMINI_MODEL", &cfg.LLM.GeminiModel)
	str("LLM_PROVIDER", &cfg.LLM.Provider)
	str("ANTHROPIC_API_KEY", &cfg.LLM.AnthropicKey)
	str("ANTHROPIC_MODEL", &cfg.LLM.AnthropicModel)
	str("BEDROCK_MODEL_ID", &cfg.LLM.BedrockModelID)
	str("BEDROCK_REGION", &cfg.LLM.BedrockRegion)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// LoadConfigBundle reads meta-routing.json and routing-rules.json from
// dir; either or both missing falls back to the embedded defaults for
// that part.
func LoadConfigBundle(dir string) (*types.ConfigBundle, error) {
	bundle := DefaultConfigBundle()

	metaPath := filepath.Join(dir, "meta-routing.json")
	if data, err := os.ReadFile(metaPath); err == nil {
		var file metaRoutingFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, err
		}
		bundle.MetaRouting = file.MetaRouting
		if len(file.IntentCategories) > 0 {
			bundle.IntentCategories = make(map[string]types.IntentCategory, len(file.IntentCategories))
			bundle.CategoryOrder = bundle.CategoryOrder[:0]
			for _, nc := range file.IntentCategories {
				bundle.IntentCategories[nc.Name] = nc.IntentCategory
				bundle.CategoryOrder = append(bundle.CategoryOrder, nc.Name)
			}
		}
		if len(file.ContextualFactors) > 0 {
			bundle.ContextualFactors = file.ContextualFactors
		}
	}

	rulesPath := filepath.Join(dir, "routing-rules.json")
	if data, err := os.ReadFile(rulesPath); err == nil {
		var rules []types.RoutingRule
		if err := json.Unmarshal(data, &rules); err != nil {
			return nil, err
		}
		bundle.RoutingRules = rules
	}

	return bundle, nil
}

// metaRoutingFile is the on-disk shape of meta-routing.json: intent
// categories are an ordered array (name + body) rather than a bare JSON
// object, so that the "ties broken by insertion order of
// intentCategories" invariant survives a round trip through disk.
type metaRoutingFile struct {
	MetaRouting types.MetaRoutingConfig `json:"metaRouting"`
	IntentCategories []namedIntentCategory `json:"intentCategories"`
	ContextualFactors map[string]types.ContextualFactorConfig `json:"contextualFactors"`
}

type namedIntentCategory struct {
	Name string `json:"name"`
	types.IntentCategory
}
