package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// LedgerHostFlagName exposes the ledger node host flag name.
	LedgerHostFlagName = "host"
	// LedgerHostFlagUsage describes the ledger node host flag.
	LedgerHostFlagUsage = "Ledger JSON-RPC host"
	// LedgerPortFlagName exposes the ledger node port flag name.
	LedgerPortFlagName = "port"
	// LedgerPortFlagShorthand provides the shorthand for the port flag.
	LedgerPortFlagShorthand = "p"
	// LedgerPortFlagUsage describes the ledger node port flag.
	LedgerPortFlagUsage = "Ledger JSON-RPC port"
	// LedgerAccountFlagName exposes the sender account flag name.
	LedgerAccountFlagName = "account"
	// LedgerAccountFlagShorthand provides the shorthand for the account flag.
	LedgerAccountFlagShorthand = "a"
	// LedgerAccountFlagUsage describes the sender account flag.
	LedgerAccountFlagUsage = "Sender account (defaults to the node's first account)"
)

// LedgerFlagValues stores ledger endpoint flag values.
type LedgerFlagValues struct {
	Host    string
	Port    int
	Account string
}

// LedgerFlagChanges records which ledger flags were set on the command line.
type LedgerFlagChanges struct {
	Host    bool
	Port    bool
	Account bool
}

// Any reports whether at least one ledger flag was set.
func (changes LedgerFlagChanges) Any() bool {
	return changes.Host || changes.Port || changes.Account
}

// BindLedgerFlags attaches the persistent ledger endpoint flags to the provided command.
func BindLedgerFlags(command *cobra.Command, defaults LedgerFlagValues) *LedgerFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	persistentFlagSet := command.PersistentFlags()
	if persistentFlagSet.Lookup(LedgerHostFlagName) == nil {
		persistentFlagSet.StringVar(&values.Host, LedgerHostFlagName, defaults.Host, LedgerHostFlagUsage)
	}
	if persistentFlagSet.Lookup(LedgerPortFlagName) == nil {
		persistentFlagSet.IntVarP(&values.Port, LedgerPortFlagName, LedgerPortFlagShorthand, defaults.Port, LedgerPortFlagUsage)
	}
	if persistentFlagSet.Lookup(LedgerAccountFlagName) == nil {
		persistentFlagSet.StringVarP(&values.Account, LedgerAccountFlagName, LedgerAccountFlagShorthand, defaults.Account, LedgerAccountFlagUsage)
	}
	return &values
}

// DetectLedgerFlagChanges inspects the flag sets and reports which ledger flags were set.
func DetectLedgerFlagChanges(flagSets ...*pflag.FlagSet) LedgerFlagChanges {
	changes := LedgerFlagChanges{}
	for _, flagSet := range flagSets {
		if flagSet == nil {
			continue
		}
		changes.Host = changes.Host || flagSet.Changed(LedgerHostFlagName)
		changes.Port = changes.Port || flagSet.Changed(LedgerPortFlagName)
		changes.Account = changes.Account || flagSet.Changed(LedgerAccountFlagName)
	}
	return changes
}
