package configuration

import (
	"encoding/json"
	"os"
	"path"
)

const defaultHTTPPort = 8787

type UserConfig struct {
	HttpPort int    `json:"httpPort"`
	CacheDir string `json:"cacheDir,omitempty"`
}

// LoadUserConfig reads config.json from the user config directory. A missing
// or unreadable file is replaced with the defaults, so the first run leaves
// an editable template behind.
func LoadUserConfig() *UserConfig {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return defaultUserConfig()
	}

	cfgDir := path.Join(configDir, "merklecid")
	cfgPath := path.Join(cfgDir, "config.json")
	f, err := os.Open(cfgPath)
	if err != nil {
		cfg := defaultUserConfig()
		writeUserConfig(cfgDir, cfgPath, cfg)
		return cfg
	}
	defer f.Close()

	var cfg UserConfig
	dec := json.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		cfg2 := defaultUserConfig()
		writeUserConfig(cfgDir, cfgPath, cfg2)
		return cfg2
	}
	if cfg.HttpPort == 0 {
		cfg.HttpPort = defaultHTTPPort
	}

	return &cfg
}

func writeUserConfig(cfgDir, cfgPath string, cfg *UserConfig) {
	_ = os.MkdirAll(cfgDir, 0o755)
	if data, err := json.MarshalIndent(cfg, "", "  "); err == nil {
		_ = os.WriteFile(cfgPath, data, 0o644)
	}
}

func defaultUserConfig() *UserConfig {
	cfg := &UserConfig{HttpPort: defaultHTTPPort}
	if cacheDir, err := os.UserCacheDir(); err == nil {
		cfg.CacheDir = path.Join(cacheDir, "merklecid")
	}
	return cfg
}
