package services

import (
	"testing"
	"time"

	"cultivation-system/utils"
)

func TestNewBackendClientFromEnv(t *testing.T) {
	t.Run("unset URL disables the backend", func(t *testing.T) {
		t.Setenv("AI_SERVICE_URL", "")
		if NewBackendClientFromEnv() != nil {
			t.Error("expected nil client without AI_SERVICE_URL")
		}
	})

	t.Run("uses the shared client by default", func(t *testing.T) {
		t.Setenv("AI_SERVICE_URL", "http://ai.internal")
		t.Setenv("AI_TIMEOUT_SECONDS", "")
		c := NewBackendClientFromEnv()
		if c == nil {
			t.Fatal("expected a client")
		}
		if c.HTTPClient != utils.HTTPClient {
			t.Error("expected the shared HTTP client")
		}
	})

	t.Run("timeout override leaves the shared client untouched", func(t *testing.T) {
		t.Setenv("AI_SERVICE_URL", "http://ai.internal")
		t.Setenv("AI_TIMEOUT_SECONDS", "5")
		c := NewBackendClientFromEnv()
		if c.HTTPClient == utils.HTTPClient {
			t.Error("override should build a separate client")
		}
		if c.HTTPClient.Timeout != 5*time.Second {
			t.Errorf("timeout = %v, want 5s", c.HTTPClient.Timeout)
		}
		if utils.HTTPClient.Timeout != 60*time.Second {
			t.Errorf("shared client timeout = %v, want 60s", utils.HTTPClient.Timeout)
		}
	})
}
