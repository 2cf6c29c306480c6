package dependencies

import (
	"time"

	"github.com/temirov/mango/internal/contentstore/swarm"
	"github.com/temirov/mango/internal/forkmerge"
	"github.com/temirov/mango/internal/ledger"
	"github.com/temirov/mango/internal/ledger/ethereum"
)

const (
	// ContentBackendSwarm stores issue bodies through a Swarm gateway.
	ContentBackendSwarm = "swarm"
	// ContentBackendLocal stores issue bodies in a local content-addressed directory.
	ContentBackendLocal = "local"

	// LedgerConfigurationKey is the configuration section holding LedgerConfiguration.
	LedgerConfigurationKey = "ledger"
	// ContentConfigurationKey is the configuration section holding ContentConfiguration.
	ContentConfigurationKey = "content"
	// EditorConfigurationKey is the configuration section holding EditorConfiguration.
	EditorConfigurationKey = "editor"
	// ForkConfigurationKey is the configuration section holding ForkConfiguration.
	ForkConfigurationKey = "fork"
	// MergeConfigurationKey is the configuration section holding MergeConfiguration.
	MergeConfigurationKey = "merge"

	defaultLedgerHostConstant       = "localhost"
	defaultLedgerPortConstant       = 8545
	defaultArtifactPathConstant     = "build/contracts/MangoRepo.json"
	defaultLocalContentPathConstant = "~/.mango/objects"

	ledgerHostKeySuffix          = ".host"
	ledgerPortKeySuffix          = ".port"
	ledgerAccountKeySuffix       = ".account"
	ledgerArtifactKeySuffix      = ".artifact"
	ledgerWriteGasKeySuffix      = ".write_gas_limit"
	ledgerDeploymentGasKeySuffix = ".deployment_gas_limit"
	ledgerPollIntervalKeySuffix  = ".receipt_poll_interval"
	ledgerTimeoutKeySuffix       = ".receipt_timeout"
	ledgerMaximumEntriesSuffix   = ".max_entries"
	contentBackendKeySuffix      = ".backend"
	contentGatewayKeySuffix      = ".gateway"
	contentLocalPathKeySuffix    = ".local_path"
	editorCommandKeySuffix       = ".command"
	forkExcludeKeySuffix         = ".exclude"
	mergeRemoteKeySuffix         = ".remote"
	mergeBranchKeySuffix         = ".branch"
)

// LedgerConfiguration describes how to reach the ledger node and how much gas to attach.
type LedgerConfiguration struct {
	Host                string        `mapstructure:"host"`
	Port                int           `mapstructure:"port"`
	Account             string        `mapstructure:"account"`
	Artifact            string        `mapstructure:"artifact"`
	WriteGasLimit       uint64        `mapstructure:"write_gas_limit"`
	DeploymentGasLimit  uint64        `mapstructure:"deployment_gas_limit"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	MaxEntries          uint64        `mapstructure:"max_entries"`
}

// ContentConfiguration selects the content store backend.
type ContentConfiguration struct {
	Backend   string `mapstructure:"backend"`
	Gateway   string `mapstructure:"gateway"`
	LocalPath string `mapstructure:"local_path"`
}

// EditorConfiguration overrides the editor used for issue bodies.
type EditorConfiguration struct {
	Command string `mapstructure:"command"`
}

// ForkConfiguration lists path components a fork never copies.
type ForkConfiguration struct {
	Exclude []string `mapstructure:"exclude"`
}

// MergeConfiguration names the temporary remote and the fork branch merged back.
type MergeConfiguration struct {
	Remote string `mapstructure:"remote"`
	Branch string `mapstructure:"branch"`
}

// Configuration aggregates the settings repository commands consume.
type Configuration struct {
	Ledger  LedgerConfiguration
	Content ContentConfiguration
	Editor  EditorConfiguration
	Fork    ForkConfiguration
	Merge   MergeConfiguration
}

// DefaultConfiguration returns the settings used when nothing is configured.
func DefaultConfiguration() Configuration {
	return Configuration{
		Ledger: LedgerConfiguration{
			Host:                defaultLedgerHostConstant,
			Port:                defaultLedgerPortConstant,
			Artifact:            defaultArtifactPathConstant,
			WriteGasLimit:       ledger.DefaultWriteGasLimit,
			DeploymentGasLimit:  ledger.DefaultDeploymentGasLimit,
			ReceiptPollInterval: ethereum.DefaultReceiptPollInterval,
			ReceiptTimeout:      ethereum.DefaultReceiptTimeout,
			MaxEntries:          ledger.DefaultMaximumEntries,
		},
		Content: ContentConfiguration{
			Backend:   ContentBackendSwarm,
			Gateway:   swarm.DefaultGatewayURL,
			LocalPath: defaultLocalContentPathConstant,
		},
		Fork: ForkConfiguration{Exclude: forkmerge.DefaultExclusions()},
		Merge: MergeConfiguration{
			Remote: forkmerge.DefaultRemoteName,
			Branch: forkmerge.DefaultBranchName,
		},
	}
}

// DefaultConfigurationValues flattens DefaultConfiguration into dotted configuration keys.
func DefaultConfigurationValues() map[string]any {
	defaults := DefaultConfiguration()
	ledgerPrefix := LedgerConfigurationKey
	contentPrefix := ContentConfigurationKey
	editorPrefix := EditorConfigurationKey
	forkPrefix := ForkConfigurationKey
	mergePrefix := MergeConfigurationKey
	return map[string]any{
		ledgerPrefix + ledgerHostKeySuffix:          defaults.Ledger.Host,
		ledgerPrefix + ledgerPortKeySuffix:          defaults.Ledger.Port,
		ledgerPrefix + ledgerAccountKeySuffix:       defaults.Ledger.Account,
		ledgerPrefix + ledgerArtifactKeySuffix:      defaults.Ledger.Artifact,
		ledgerPrefix + ledgerWriteGasKeySuffix:      defaults.Ledger.WriteGasLimit,
		ledgerPrefix + ledgerDeploymentGasKeySuffix: defaults.Ledger.DeploymentGasLimit,
		ledgerPrefix + ledgerPollIntervalKeySuffix:  defaults.Ledger.ReceiptPollInterval.String(),
		ledgerPrefix + ledgerTimeoutKeySuffix:       defaults.Ledger.ReceiptTimeout.String(),
		ledgerPrefix + ledgerMaximumEntriesSuffix:   defaults.Ledger.MaxEntries,
		contentPrefix + contentBackendKeySuffix:     defaults.Content.Backend,
		contentPrefix + contentGatewayKeySuffix:     defaults.Content.Gateway,
		contentPrefix + contentLocalPathKeySuffix:   defaults.Content.LocalPath,
		editorPrefix + editorCommandKeySuffix:       defaults.Editor.Command,
		forkPrefix + forkExcludeKeySuffix:           defaults.Fork.Exclude,
		mergePrefix + mergeRemoteKeySuffix:          defaults.Merge.Remote,
		mergePrefix + mergeBranchKeySuffix:          defaults.Merge.Branch,
	}
}
