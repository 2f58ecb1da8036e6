package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/coastwatch/internal/model"
)

// secretKeys have no default value, so they are bound explicitly for the
// environment to reach them.
var secretKeys = map[string][]string{
	"llm.api_key":        {"COASTWATCH_LLM_API_KEY"},
	"search.api_key":     {"COASTWATCH_SEARCH_API_KEY", "RAPIDAPI_KEY"},
	"search.http_proxy":  {"COASTWATCH_SEARCH_HTTP_PROXY"},
	"search.https_proxy": {"COASTWATCH_SEARCH_HTTPS_PROXY"},
	"redis.url":          {"COASTWATCH_REDIS_URL"},
}

// loadConfig merges defaults, the config file, the environment and bound
// flags, in rising priority.
func loadConfig(v *viper.Viper) (*model.Config, error) {
	defaults, err := flatDefaults(model.DefaultConfig())
	if err != nil {
		return nil, err
	}
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	for key, envs := range secretKeys {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	// Environment values arrive as strings. Where the default is not a
	// string they are parsed as YAML scalars so "false" and "2.5" decode
	// into bool and float fields.
	tree := map[string]any{}
	for _, key := range v.AllKeys() {
		val := v.Get(key)
		if s, ok := val.(string); ok {
			if _, isString := defaults[key].(string); !isString && defaults[key] != nil {
				val = parseScalar(s)
			}
		}
		setPath(tree, strings.Split(key, "."), val)
	}

	// Round-trip through YAML so the yaml tags on model.Config drive decoding.
	data, err := yaml.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	cfg := model.DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return cfg, nil
}

// flatDefaults flattens cfg into dotted keys, e.g. "llm.model".
func flatDefaults(cfg *model.Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	flat := map[string]any{}
	flatten(flat, "", tree)
	return flat, nil
}

func flatten(out map[string]any, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			flatten(out, key, sub)
			continue
		}
		out[key] = val
	}
}

func parseScalar(s string) any {
	var val any
	if err := yaml.Unmarshal([]byte(s), &val); err != nil || val == nil {
		return s
	}
	return val
}

func setPath(tree map[string]any, path []string, val any) {
	for _, p := range path[:len(path)-1] {
		sub, ok := tree[p].(map[string]any)
		if !ok {
			sub = map[string]any{}
			tree[p] = sub
		}
		tree = sub
	}
	tree[path[len(path)-1]] = val
}
