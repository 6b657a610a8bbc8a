package nats

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replyflow/inbox/pkg/logger"
)

func TestConnectOptions(t *testing.T) {
	log := logger.NewNop()

	plain := connectOptions(Config{URL: "nats://localhost:4222"}, log)
	withToken := connectOptions(Config{URL: "nats://localhost:4222", Token: "s3cret"}, log)
	withTLS := connectOptions(Config{CAFile: "ca.pem", CertFile: "cert.pem", KeyFile: "key.pem"}, log)
	partialTLS := connectOptions(Config{CAFile: "ca.pem", CertFile: "cert.pem"}, log)

	assert.Len(t, withToken, len(plain)+1)
	assert.Len(t, withTLS, len(plain)+2)
	assert.Len(t, partialTLS, len(plain), "TLS needs all three files")
}

func TestConnectUnreachable(t *testing.T) {
	_, err := Connect(context.Background(), Config{URL: "nats://127.0.0.1:1"}, logger.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nats://127.0.0.1:1")
}

func TestConnectMissingCA(t *testing.T) {
	cfg := Config{
		URL:      "tls://127.0.0.1:1",
		CAFile:   "testdata/missing-ca.pem",
		CertFile: "testdata/missing-cert.pem",
		KeyFile:  "testdata/missing-key.pem",
	}
	_, err := Connect(context.Background(), cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestClientWithoutConnection(t *testing.T) {
	var c Client
	assert.False(t, c.IsConnected())
	c.Close()
}
