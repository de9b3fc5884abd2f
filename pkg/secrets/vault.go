package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/zatekoja/articleforge/pkg/retry"
)

// CredentialKeys are the environment variables the overlay may populate
var CredentialKeys = []string{
	"KEYWORDS_API_LOGIN",
	"KEYWORDS_API_PASSWORD",
	"SERP_API_KEY",
	"PAA_API_KEY",
	"ANTHROPIC_API_KEY",
	"OPENAI_API_KEY",
	"IMAGE_API_KEY",
	"VALUATION_API_KEY",
	"CMS_URL",
	"CMS_TOKEN",
	"DATABASE_URL",
	"REDIS_PASSWORD",
	"TYPESENSE_API_KEY",
}

// Doer is satisfied by *http.Client
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// VaultConfig selects the KV secret read before configuration loads
type VaultConfig struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
	Retry     retry.Config
	Doer      Doer
}

// VaultResult summarises one overlay
type VaultResult struct {
	Enabled bool
	Path    string
	Loaded  int
	Skipped int
	Ignored []string
}

// LoadVaultConfigFromEnv reads VAULT_* variables; pathOverride wins over VAULT_PATH
func LoadVaultConfigFromEnv(pathOverride string) VaultConfig {
	mount := os.Getenv("VAULT_MOUNT")
	if mount == "" {
		mount = "secret"
	}
	kvVersion := 2
	if val := os.Getenv("VAULT_KV_VERSION"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			kvVersion = parsed
		}
	}
	path := pathOverride
	if path == "" {
		path = os.Getenv("VAULT_PATH")
	}
	timeout := 5 * time.Second
	if val := os.Getenv("VAULT_TIMEOUT_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			timeout = time.Duration(parsed) * time.Millisecond
		}
	}

	return VaultConfig{
		Enabled:   strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true"),
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     mount,
		Path:      path,
		KVVersion: kvVersion,
		Timeout:   timeout,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
		Retry:     retry.DefaultConfig(),
	}
}

// errVaultStatus marks non-2xx answers; only 5xx are retried
type errVaultStatus struct {
	code int
	body string
}

func (e *errVaultStatus) Error() string {
	return fmt.Sprintf("vault fetch failed: %d %s", e.code, e.body)
}

// ApplyVaultSecrets copies credential keys from the KV secret into the
// environment. Keys outside CredentialKeys are reported and left alone.
func ApplyVaultSecrets(ctx context.Context, cfg VaultConfig) (VaultResult, error) {
	result := VaultResult{Enabled: cfg.Enabled, Path: cfg.Path}
	if !cfg.Enabled {
		return result, nil
	}
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return result, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}

	url, err := buildVaultURL(cfg.Addr, cfg.Mount, cfg.Path, cfg.KVVersion)
	if err != nil {
		return result, err
	}

	doer := cfg.Doer
	if doer == nil {
		doer = &http.Client{Timeout: cfg.Timeout}
	}

	var body []byte
	err = retry.Run(ctx, cfg.Retry, func(ctx context.Context, attempt int) error {
		body, err = fetch(ctx, doer, url, cfg)
		return err
	}, retry.WithRetryIf(func(err error) bool {
		var status *errVaultStatus
		if errors.As(err, &status) {
			return status.code >= http.StatusInternalServerError
		}
		return true
	}))
	if err != nil {
		return result, err
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return result, fmt.Errorf("vault response is not JSON: %w", err)
	}

	data, err := extractVaultData(payload, cfg.KVVersion)
	if err != nil {
		return result, err
	}

	for key, value := range data {
		if !slices.Contains(CredentialKeys, key) {
			result.Ignored = append(result.Ignored, key)
			continue
		}
		if !cfg.Overwrite && os.Getenv(key) != "" {
			result.Skipped++
			continue
		}
		if err := os.Setenv(key, stringifyVaultValue(value)); err != nil {
			return result, err
		}
		result.Loaded++
	}
	slices.Sort(result.Ignored)
	return result, nil
}

func fetch(ctx context.Context, doer Doer, url string, cfg VaultConfig) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", cfg.Token)
	if cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.Namespace)
	}

	resp, err := doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errVaultStatus{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

func buildVaultURL(addr, mount, path string, kvVersion int) (string, error) {
	addr = strings.TrimRight(addr, "/")
	mount = strings.Trim(mount, "/")
	path = strings.TrimLeft(path, "/")
	if addr == "" || mount == "" || path == "" {
		return "", errors.New("vault address, mount, and path must be set")
	}
	if kvVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
}

func extractVaultData(payload map[string]interface{}, kvVersion int) (map[string]interface{}, error) {
	data, ok := payload["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vault response missing data for KV v%d", kvVersion)
	}
	if kvVersion == 1 {
		return data, nil
	}
	if inner, ok := data["data"].(map[string]interface{}); ok {
		return inner, nil
	}
	return nil, fmt.Errorf("vault response missing data for KV v%d", kvVersion)
}

func stringifyVaultValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	}
}
