package cli

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/osvaldoandrade/anchoridl/internal/domain"
	"github.com/osvaldoandrade/anchoridl/internal/platform"
	"github.com/spf13/cobra"
)

const defaultTimeout = 30 * time.Second

type RootOptions struct {
	JSONOutput  bool
	LogLevel    string
	LogFormat   string
	LogNoTime   bool
	Cluster     string
	RPCURL      string
	Timeout     time.Duration
	MaxIDLBytes int64
}

func newRootCmd() *cobra.Command {
	opts := &RootOptions{
		LogLevel:    envDefault("ANCHORIDL_LOG_LEVEL", "info"),
		LogFormat:   envDefault("ANCHORIDL_LOG_FORMAT", "text"),
		LogNoTime:   envBoolDefault("ANCHORIDL_LOG_NO_TIME", false),
		Cluster:     envDefault("ANCHORIDL_CLUSTER", string(domain.DefaultCluster)),
		RPCURL:      envDefault("ANCHORIDL_RPC_URL", ""),
		Timeout:     envDurationDefault("ANCHORIDL_TIMEOUT", defaultTimeout),
		MaxIDLBytes: envInt64Default("ANCHORIDL_MAX_IDL_BYTES", 0),
	}
	cmd := &cobra.Command{
		Use:           "anchoridl",
		Short:         "Resolve Anchor IDL documents stored on Solana",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_, err := platform.ConfigureLogger(platform.LoggerOptions{
				Level:    opts.LogLevel,
				Format:   opts.LogFormat,
				OmitTime: opts.LogNoTime,
				Out:      cmd.ErrOrStderr(),
			})
			return err
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.JSONOutput, "json", false, "Emit JSON output")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", opts.LogLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", opts.LogFormat, "Log format (text, json)")
	cmd.PersistentFlags().BoolVar(&opts.LogNoTime, "log-no-time", opts.LogNoTime, "Omit timestamps from log lines")
	cmd.PersistentFlags().StringVar(&opts.Cluster, "cluster", opts.Cluster, "Cluster name (mainnet-beta, testnet, devnet)")
	cmd.PersistentFlags().StringVar(&opts.RPCURL, "rpc-url", opts.RPCURL, "JSON-RPC endpoint overriding the cluster URL")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", opts.Timeout, "Timeout for a single account fetch (0 disables)")
	cmd.PersistentFlags().Int64Var(&opts.MaxIDLBytes, "max-idl-bytes", opts.MaxIDLBytes, "Upper bound on the decompressed IDL size (0 is unbounded)")

	cmd.AddCommand(
		newFetchCmd(opts),
		newDecodeCmd(opts),
		newAddressCmd(opts),
		newAccountCmd(opts),
		newPackCmd(opts),
		newServeCmd(opts),
	)

	return cmd
}

func envDefault(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBoolDefault(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt64Default(key string, fallback int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
