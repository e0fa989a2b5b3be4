package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/ifdb/internal/infra/httpx"
	"github.com/John-Robertt/ifdb/internal/search"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
	// ErrCodeMissingCredentials 表示 find 需要的 api_key / search_engine_id 缺失。
	ErrCodeMissingCredentials = "config_missing_credentials"
)

const (
	// DefaultFileName 是未指定 --config 时在 cwd 下查找的配置文件（可选）。
	DefaultFileName = "ifdb.toml"
	// DotEnvFileName 是 cwd 下可选的 .env 文件。
	DotEnvFileName = ".env"

	DefaultDomain   = "fanedit.org"
	DefaultLogLevel = "info"

	MinTimeout = 1 * time.Second
	MaxTimeout = 120 * time.Second
)

// 环境变量名（.env 中同名键同样生效，但不覆盖真实环境变量）。
const (
	EnvAPIKey         = "IFDB_API_KEY"
	EnvSearchEngineID = "IFDB_SEARCH_ENGINE_ID"
	EnvDomain         = "IFDB_DOMAIN"
	EnvUserAgent      = "IFDB_USER_AGENT"
	EnvLogLevel       = "IFDB_LOG_LEVEL"
)

// CLIArgs 是 CLI 暴露的配置项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --domain="" 必须能被识别为显式指定后再校验。
type CLIArgs struct {
	ConfigPath string

	APIKey    string
	APIKeySet bool

	SearchEngineID    string
	SearchEngineIDSet bool

	Domain    string
	DomainSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 ifdb.toml 的解析结构。
type FileConfig struct {
	APIKey         string       `toml:"api_key"`
	SearchEngineID string       `toml:"search_engine_id"`
	Domain         string       `toml:"domain"`
	UserAgent      string       `toml:"user_agent"`
	TimeoutSeconds int          `toml:"timeout_seconds"`
	SearchEndpoint string       `toml:"search_endpoint"`
	LogLevel       string       `toml:"log_level"`
	Proxy          *ProxyConfig `toml:"proxy"`
}

type ProxyConfig struct {
	URL string `toml:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读到的配置文件；未读到任何文件时为空。
	ConfigPath string

	APIKey         string
	SearchEngineID string

	Domain    string
	UserAgent string
	Timeout   time.Duration

	// SearchEndpoint 覆盖搜索 API 根地址（联调/测试用）；为空使用库默认值。
	SearchEndpoint string
	ProxyURL       string

	LogLevel string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeMissingCredentials:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：缺少 api_key 或 search_engine_id", e.Code)
	case ErrCodeInvalid:
		if e.Path == "" {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// RequireCredentials 检查 find 所需的凭据对；getdetails 不需要。
func (c EffectiveConfig) RequireCredentials() error {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.SearchEngineID == "" {
		missing = append(missing, "search_engine_id")
	}
	if len(missing) == 0 {
		return nil
	}
	return &Error{
		Code: ErrCodeMissingCredentials,
		Path: c.ConfigPath,
		Err:  fmt.Errorf("缺少 %s（可在 %s、环境变量 %s/%s 或 CLI 参数中设置）", strings.Join(missing, " 与 "), DefaultFileName, EnvAPIKey, EnvSearchEngineID),
	}
}

// SlogLevel 把 LogLevel 映射为 slog.Level；LogLevel 已在合并阶段校验。
func (c EffectiveConfig) SlogLevel() slog.Level {
	lvl, _ := parseLogLevel(c.LogLevel)
	return lvl
}

// LoadEffective 发现并读取配置文件与 .env，然后与环境变量、CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在，否则 config_not_found
// 2) 未提供：尝试读取 <cwd>/ifdb.toml（可选）
// 3) <cwd>/.env 可选；只补充进程环境中不存在的变量
//
// 覆盖优先级（固定）：CLI > 环境变量（含 .env） > 配置文件 > 默认值。
// 凭据缺失不在此处报错，由 RequireCredentials 在 find 时检查。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
	)
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(cwdAbs, DefaultFileName)
		var exists bool
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			cfgPath = ""
		}
	}

	envPath := filepath.Join(cwdAbs, DotEnvFileName)
	dotenv, err := readDotEnv(envPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	return merge(cli, lookup, fc, cfgPath)
}

func merge(cli CLIArgs, lookup func(string) (string, bool), fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) error {
		return &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	eff := EffectiveConfig{
		ConfigPath:     cfgPath,
		APIKey:         pick(cli.APIKey, cli.APIKeySet, lookup, EnvAPIKey, fc.APIKey, ""),
		SearchEngineID: pick(cli.SearchEngineID, cli.SearchEngineIDSet, lookup, EnvSearchEngineID, fc.SearchEngineID, ""),
		UserAgent:      pick("", false, lookup, EnvUserAgent, fc.UserAgent, httpx.DefaultUserAgent),
		LogLevel:       strings.ToLower(pick(cli.LogLevel, cli.LogLevelSet, lookup, EnvLogLevel, fc.LogLevel, DefaultLogLevel)),
		SearchEndpoint: strings.TrimSpace(fc.SearchEndpoint),
	}

	domain, err := search.ValidateDomain(pick(cli.Domain, cli.DomainSet, lookup, EnvDomain, fc.Domain, DefaultDomain))
	if err != nil {
		return EffectiveConfig{}, invalid(err)
	}
	eff.Domain = domain

	if _, err := parseLogLevel(eff.LogLevel); err != nil {
		return EffectiveConfig{}, invalid(err)
	}

	eff.Timeout = httpx.DefaultTimeout
	if fc.TimeoutSeconds != 0 {
		eff.Timeout = time.Duration(fc.TimeoutSeconds) * time.Second
	}
	if eff.Timeout < MinTimeout || eff.Timeout > MaxTimeout {
		return EffectiveConfig{}, invalid(fmt.Errorf("timeout_seconds 必须在 [%d, %d] 内，实际是 %d", int(MinTimeout.Seconds()), int(MaxTimeout.Seconds()), fc.TimeoutSeconds))
	}

	if eff.SearchEndpoint != "" {
		u, err := url.Parse(eff.SearchEndpoint)
		if err != nil || u.Host == "" {
			return EffectiveConfig{}, invalid(fmt.Errorf("search_endpoint 无效：%q", eff.SearchEndpoint))
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return EffectiveConfig{}, invalid(fmt.Errorf("search_endpoint 必须是 http/https：%q", eff.SearchEndpoint))
		}
	}

	if fc.Proxy != nil {
		eff.ProxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if eff.ProxyURL != "" {
		u, err := url.Parse(eff.ProxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return EffectiveConfig{}, invalid(fmt.Errorf("proxy.url 无效：%q", eff.ProxyURL))
		}
	}

	return eff, nil
}

// pick 按 CLI > 环境变量 > 配置文件 > 默认值 取第一个非空值。
// CLI 显式指定时即使为空也不再向下回退（由后续校验决定是否合法）。
func pick(cliVal string, cliSet bool, lookup func(string) (string, bool), envKey, fileVal, def string) string {
	if cliSet {
		return strings.TrimSpace(cliVal)
	}
	if v, ok := lookup(envKey); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(fileVal); v != "" {
		return v
	}
	return def
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log_level 只能是 debug/info/warn/error，实际是 %q", s)
	}
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// readDotEnv 解析 .env 为 map，不修改进程环境；文件不存在返回空 map。
func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	return godotenv.Read(path)
}
