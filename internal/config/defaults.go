package config

// SupportedNetworks is the allow-list of network names, in display order.
var SupportedNetworks = []string{
	"sepolia",
	"goerli",
	"mumbai",
	"optimism-goerli",
	"arbitrum",
	"arbitrum-goerli",
}

const (
	DefaultTemplate    = "@semaphore-protocol/cli-template-hardhat"
	DefaultCLIPackage  = "@semaphore-protocol/cli"
	DefaultRegistryURL = "https://registry.npmjs.org"
	DefaultTimeout     = "30s"

	subgraphBase = "https://api.studio.thegraph.com/query/14377/"
	subgraphTag  = "/v3.6.1"
)

// Default returns the built-in configuration for every supported network.
func Default() *Config {
	return &Config{
		Version: 1,
		Global: GlobalConfig{
			Template:    DefaultTemplate,
			CLIPackage:  DefaultCLIPackage,
			RegistryURL: DefaultRegistryURL,
			Timeout:     DefaultTimeout,
		},
		Networks: map[string]Network{
			"sepolia": {
				SubgraphURL: subgraphBase + "semaphore-sepolia" + subgraphTag,
				RPCURL:      "https://rpc.sepolia.org",
				Contract:    "0x3889927F0B5Eb1a02C6E2C20b39a1Bd4EAd76131",
				StartBlock:  3231111,
			},
			"goerli": {
				SubgraphURL: subgraphBase + "semaphore-goerli" + subgraphTag,
				RPCURL:      "https://rpc.ankr.com/eth_goerli",
				Contract:    "0x3889927F0B5Eb1a02C6E2C20b39a1Bd4EAd76131",
				StartBlock:  8777695,
			},
			"mumbai": {
				SubgraphURL: subgraphBase + "semaphore-mumbai" + subgraphTag,
				RPCURL:      "https://rpc-mumbai.maticvigil.com",
				Contract:    "0x3889927F0B5Eb1a02C6E2C20b39a1Bd4EAd76131",
				StartBlock:  33995010,
			},
			"optimism-goerli": {
				SubgraphURL: subgraphBase + "semaphore-optimism-goerli" + subgraphTag,
				RPCURL:      "https://goerli.optimism.io",
				Contract:    "0x3889927F0B5Eb1a02C6E2C20b39a1Bd4EAd76131",
				StartBlock:  6477953,
			},
			"arbitrum": {
				SubgraphURL: subgraphBase + "semaphore-arbitrum" + subgraphTag,
				RPCURL:      "https://arb1.arbitrum.io/rpc",
				Contract:    "0xc60E0Ee1a2770d5F619858C641f14FC4a6401520",
				StartBlock:  77278430,
			},
			"arbitrum-goerli": {
				SubgraphURL: subgraphBase + "semaphore-arbitrum-goerli" + subgraphTag,
				RPCURL:      "https://goerli-rollup.arbitrum.io/rpc",
				Contract:    "0x3889927F0B5Eb1a02C6E2C20b39a1Bd4EAd76131",
				StartBlock:  15174410,
			},
		},
	}
}
