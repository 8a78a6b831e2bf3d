package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/outreach-mail/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"MAIL_TRANSPORT":          "",
		"DISPATCH_CONCURRENCY":    "",
		"HISTORY_RECORD_FAILURES": "",
		"PORT":                    "",
	})
	require.NoError(t, err)
	require.Equal(t, config.TransportMock, cfg.MailTransport)
	require.Equal(t, 4, cfg.DispatchConcurrency)
	require.False(t, cfg.HistoryRecordFailures)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 10*time.Second, cfg.MailSendTimeout)
	require.True(t, cfg.SecurityHeadersEnabled)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := config.LoadForTests(map[string]string{
		"PORT":                     ":9090",
		"DISPATCH_CONCURRENCY":     "0",
		"HISTORY_RECORD_FAILURES":  "true",
		"CORS_ALLOWED_ORIGINS":     "https://a.org, https://b.org ,",
		"BREAKER_FAILURE_RATIO":    "0.25",
		"RATE_LIMIT_SEND_WINDOW":   "bogus",
		"SECURITY_HEADERS_ENABLED": "off",
	})
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, 1, cfg.DispatchConcurrency)
	require.True(t, cfg.HistoryRecordFailures)
	require.Equal(t, []string{"https://a.org", "https://b.org"}, cfg.CORSAllowedOrigins)
	require.InDelta(t, 0.25, cfg.BreakerFailureRatio, 1e-9)
	require.Equal(t, time.Minute, cfg.RateLimitSendWindow)
	require.False(t, cfg.SecurityHeadersEnabled)
}

func TestLoadResendRequiresCredentials(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{
		"MAIL_TRANSPORT":    "resend",
		"RESEND_API_KEY":    "",
		"MAIL_FROM_ADDRESS": "",
	})
	require.Error(t, err)

	cfg, err := config.LoadForTests(map[string]string{
		"MAIL_TRANSPORT":    "resend",
		"RESEND_API_KEY":    "re_test",
		"MAIL_FROM_ADDRESS": "outreach@temelio.com",
	})
	require.NoError(t, err)
	require.Equal(t, config.TransportResend, cfg.MailTransport)
}

func TestLoadRejectsUnknownTransport(t *testing.T) {
	_, err := config.LoadForTests(map[string]string{"MAIL_TRANSPORT": "pigeon"})
	require.Error(t, err)
}
