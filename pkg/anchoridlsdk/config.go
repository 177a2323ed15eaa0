package anchoridlsdk

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

// Config defines how the SDK reaches the cluster and shapes documents.
type Config struct {
	// Cluster selects a public endpoint: mainnet-beta, testnet or devnet.
	Cluster string
	// RPCURL replaces the cluster endpoint when set.
	RPCURL      string
	HTTPClient  *http.Client
	Headers     map[string]string
	Timeout     time.Duration
	MaxIDLBytes int64
	Compact     bool
	Logger      *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Cluster: string(domain.DefaultCluster),
		Timeout: 30 * time.Second,
	}
}

func normalizeConfig(cfg Config) (Config, error) {
	cluster, err := domain.ParseCluster(cfg.Cluster)
	if err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrUnknownCluster, err)
	}
	cfg.Cluster = string(cluster)
	cfg.RPCURL = strings.TrimSpace(cfg.RPCURL)
	if cfg.MaxIDLBytes < 0 {
		return cfg, fmt.Errorf("%w: max idl bytes must not be negative", ErrInvalidConfig)
	}
	if cfg.Timeout < 0 {
		return cfg, fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return cfg, nil
}
