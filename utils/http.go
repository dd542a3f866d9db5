package utils

import (
	"net/http"
	"time"
)

// HTTPClient is the shared client for calls to the text-generation
// backend. The timeout covers the full round trip of one generation.
var HTTPClient = &http.Client{
	Timeout: 60 * time.Second,
}
