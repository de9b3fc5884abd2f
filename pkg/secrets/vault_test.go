package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/articleforge/pkg/retry"
)

func fastRetry() retry.Config {
	return retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, BackoffFactor: 2}
}

func TestApplyVaultSecrets_Disabled(t *testing.T) {
	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{})
	require.NoError(t, err)
	assert.False(t, result.Enabled)
}

func TestApplyVaultSecrets_Incomplete(t *testing.T) {
	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: true, Addr: "http://vault"})
	assert.Error(t, err)
}

func TestApplyVaultSecrets_LoadsCredentialKeys(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "/v1/secret/data/articleforge", r.URL.Path)
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Write([]byte(`{"data":{"data":{"SERP_API_KEY":"serp-1","OPENAI_API_KEY":"sk-1","HOME":"/tmp"}}}`))
	}))
	defer server.Close()

	t.Setenv("SERP_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-existing")

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled:   true,
		Addr:      server.URL,
		Token:     "root",
		Mount:     "secret",
		Path:      "articleforge",
		KVVersion: 2,
		Retry:     fastRetry(),
		Doer:      server.Client(),
	})
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls, "a 5xx answer is retried")
	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, []string{"HOME"}, result.Ignored)
	assert.Equal(t, "serp-1", os.Getenv("SERP_API_KEY"))
	assert.Equal(t, "sk-existing", os.Getenv("OPENAI_API_KEY"))
}

func TestApplyVaultSecrets_ForbiddenIsNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true, Addr: server.URL, Token: "bad", Mount: "secret", Path: "p", KVVersion: 1,
		Retry: fastRetry(), Doer: server.Client(),
	})
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls)
}

func TestBuildVaultURL(t *testing.T) {
	url, err := buildVaultURL("http://vault:8200/", "/kv/", "/app/creds", 1)
	require.NoError(t, err)
	assert.Equal(t, "http://vault:8200/v1/kv/app/creds", url)

	_, err = buildVaultURL("", "kv", "p", 2)
	assert.Error(t, err)
}

func TestStringifyVaultValue(t *testing.T) {
	assert.Equal(t, "true", stringifyVaultValue(true))
	assert.Equal(t, "42", stringifyVaultValue(float64(42)))
	assert.Equal(t, "", stringifyVaultValue(nil))
	assert.Equal(t, `["a"]`, stringifyVaultValue([]interface{}{"a"}))
}
