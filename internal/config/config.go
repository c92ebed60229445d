// Package config loads the catalog configuration from a YAML file with
// environment variable overrides.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath       = "."
	defaultName       = "catalog"
	defaultBcryptCost = 10
	defaultSessionTTL = 24 * time.Hour
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
	} `json:"env" yaml:"env"`

	Log Log `json:"log" yaml:"log"`

	Database Database `json:"database" yaml:"database"`

	Migration struct {
		LockID int64 `json:"lockId" yaml:"lockId"`
	} `json:"migration" yaml:"migration"`

	Seed struct {
		// BcryptCost is the work factor for seeded password hashes.
		BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`
	} `json:"seed" yaml:"seed"`

	Sessions struct {
		MaxLifetime time.Duration `json:"maxLifetime" yaml:"maxLifetime"`
	} `json:"sessions" yaml:"sessions"`
}

// Database holds the pgxpool settings.
type Database struct {
	URL             string        `json:"url" yaml:"url"`
	MaxConns        int32         `json:"maxConns" yaml:"maxConns"`
	MinConns        int32         `json:"minConns" yaml:"minConns"`
	MaxConnLifetime time.Duration `json:"maxConnLifetime" yaml:"maxConnLifetime"`
	ConnectTimeout  time.Duration `json:"connectTimeout" yaml:"connectTimeout"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// LoadWithEnv loads <name>.yaml from the first of configPath (then the
// working directory) that has it and applies environment overrides:
// LOG_LEVEL sets log.level. Variables whose first segment is not a
// top-level key, such as PATH, are ignored.
func LoadWithEnv[T any](name string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	searchPaths := make([]string, 0, len(configPath)+1)
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			if filepath.IsAbs(path) {
				searchPaths = append(searchPaths, path)
				continue
			}
			searchPaths = append(searchPaths, filepath.Join(pwd, path))
		}
	}
	searchPaths = append(searchPaths, defaultPath)

	var configFile string
	for _, path := range searchPaths {
		candidate := filepath.Join(path, name+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate

			break
		}
	}

	if configFile == "" {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", name)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", name)
	}

	existingConfigMap := koanfInstance.Raw()

	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			key, ok := canonicalizeEnvKey(k, existingConfigMap)
			if !ok {
				return "", nil
			}

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", name)
	}

	return cfg, nil
}

// Load reads catalog.yaml from path, or from the default search paths when
// path is empty.
func Load(path string) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	if path != "" {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		cfg, err = LoadWithEnv[Config](name, filepath.Dir(path))
	} else {
		cfg, err = LoadWithEnv[Config](defaultName, "config", "../config", "../../config")
	}
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := new(Config)
	cfg.Log.Pretty = true
	cfg.applyDefaults()

	return cfg
}

func (c *Config) applyDefaults() {
	if c.Seed.BcryptCost == 0 {
		c.Seed.BcryptCost = defaultBcryptCost
	}
	if c.Sessions.MaxLifetime == 0 {
		c.Sessions.MaxLifetime = defaultSessionTTL
	}
	if strings.TrimSpace(c.Log.Level) == "" {
		c.Log.Level = "info"
	}
}

// canonicalizeEnvKey maps DATABASE_MAXCONNS to database.maxConns by
// matching each segment against the keys loaded from the file. Variables
// whose first segment is not a top-level key are rejected.
func canonicalizeEnvKey(rawKey string, existing map[string]any) (string, bool) {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for i, segment := range segments {
		if segment == "" {
			continue
		}

		matched, next, ok := findExistingSegment(current, segment)
		switch {
		case ok:
			canonical = append(canonical, matched)
			current = next
		case i == 0:
			return "", false
		default:
			canonical = append(canonical, segment)
			current = nil
		}
	}

	if len(canonical) < 2 {
		return "", false
	}

	return strings.Join(canonical, "."), true
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
