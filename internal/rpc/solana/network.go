package solana

import (
	"fmt"
	"strings"

	solrpc "github.com/gagliardetto/solana-go/rpc"

	"github.com/fystack/solana-studio/pkg/common/constant"
)

type Cluster string

const (
	Mainnet Cluster = "mainnet"
	Devnet  Cluster = "devnet"
	Testnet Cluster = "testnet"
	Custom  Cluster = "custom"
)

const (
	MainnetURL = "https://api.mainnet-beta.solana.com"
	DevnetURL  = "https://api.devnet.solana.com"
	TestnetURL = "https://api.testnet.solana.com"
)

// Network selects an RPC endpoint. URL is only meaningful for Custom.
type Network struct {
	Cluster Cluster
	URL     string
}

var (
	MainnetNetwork = Network{Cluster: Mainnet}
	DevnetNetwork  = Network{Cluster: Devnet}
	TestnetNetwork = Network{Cluster: Testnet}
)

func CustomNetwork(url string) Network {
	return Network{Cluster: Custom, URL: url}
}

// Localnet points at a surfpool instance on its default port.
func Localnet() Network {
	return CustomNetwork(constant.DefaultLocalnetURL)
}

// ParseNetwork maps a config name ("mainnet", "devnet", "testnet",
// "localnet", "custom") onto a Network. url overrides the localnet default
// and is required for custom.
func ParseNetwork(name, url string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mainnet", "mainnet-beta":
		return MainnetNetwork, nil
	case "devnet":
		return DevnetNetwork, nil
	case "testnet":
		return TestnetNetwork, nil
	case "localnet", "":
		if url != "" {
			return CustomNetwork(url), nil
		}
		return Localnet(), nil
	case "custom":
		if url == "" {
			return Network{}, fmt.Errorf("custom network requires a url")
		}
		return CustomNetwork(url), nil
	default:
		return Network{}, fmt.Errorf("unknown network %q", name)
	}
}

func (n Network) Endpoint() string {
	switch n.Cluster {
	case Mainnet:
		return MainnetURL
	case Devnet:
		return DevnetURL
	case Testnet:
		return TestnetURL
	default:
		return n.URL
	}
}

// DefaultCommitment is finalized on mainnet and confirmed everywhere else.
func (n Network) DefaultCommitment() solrpc.CommitmentType {
	if n.Cluster == Mainnet {
		return solrpc.CommitmentFinalized
	}
	return solrpc.CommitmentConfirmed
}

// AllowsAirdrop reports whether the cluster is expected to honour requestAirdrop.
func (n Network) AllowsAirdrop() bool {
	return n.Cluster != Mainnet
}

func (n Network) String() string {
	if n.Cluster == Custom {
		return fmt.Sprintf("custom(%s)", n.URL)
	}
	return string(n.Cluster)
}

// commitmentRank orders commitment levels so a status can be compared
// against the requested threshold.
func commitmentRank(c solrpc.CommitmentType) int {
	switch c {
	case solrpc.CommitmentProcessed:
		return 1
	case solrpc.CommitmentConfirmed:
		return 2
	case solrpc.CommitmentFinalized:
		return 3
	default:
		return 0
	}
}
