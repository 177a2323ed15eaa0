package domain

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc"
)

// Cluster names a public Solana network.
type Cluster string

const (
	ClusterMainnetBeta Cluster = "mainnet-beta"
	ClusterTestnet     Cluster = "testnet"
	ClusterDevnet      Cluster = "devnet"
)

// DefaultCluster is used when no cluster is named.
const DefaultCluster = ClusterMainnetBeta

// IsValid reports whether c is one of the known clusters.
func (c Cluster) IsValid() bool {
	return c == ClusterMainnetBeta || c == ClusterTestnet || c == ClusterDevnet
}

func (c Cluster) String() string {
	return string(c)
}

// RPCURL returns the canonical public JSON-RPC endpoint for the cluster.
func (c Cluster) RPCURL() (string, error) {
	switch c {
	case ClusterMainnetBeta:
		return rpc.MainNetBeta.RPC, nil
	case ClusterTestnet:
		return rpc.TestNet.RPC, nil
	case ClusterDevnet:
		return rpc.DevNet.RPC, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCluster, string(c))
	}
}

// ParseCluster accepts one of the known cluster names. An empty value selects
// DefaultCluster.
func ParseCluster(value string) (Cluster, error) {
	parsed := Cluster(strings.TrimSpace(strings.ToLower(value)))
	if parsed == "" {
		return DefaultCluster, nil
	}
	if !parsed.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCluster, value)
	}
	return parsed, nil
}

// KnownClusters lists the accepted cluster names in display order.
func KnownClusters() []Cluster {
	return []Cluster{ClusterMainnetBeta, ClusterTestnet, ClusterDevnet}
}

// ResolveEndpoint parses clusterName and returns the endpoint to query. A
// non-empty rpcURL replaces the cluster's public endpoint but the cluster
// name is still validated.
func ResolveEndpoint(clusterName, rpcURL string) (Cluster, string, error) {
	cluster, err := ParseCluster(clusterName)
	if err != nil {
		return "", "", err
	}
	if rpcURL = strings.TrimSpace(rpcURL); rpcURL != "" {
		return cluster, rpcURL, nil
	}
	endpoint, err := cluster.RPCURL()
	if err != nil {
		return "", "", err
	}
	return cluster, endpoint, nil
}
