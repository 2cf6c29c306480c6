// Package ethereum binds ledger.Connection and ledger.Contract to an Ethereum
// node over JSON-RPC.
//
// Reads are eth_call requests encoded with the MangoRepo ABI. Writes are sent
// from a node-managed account with eth_sendTransaction and polled for a
// receipt. Deployment needs the compiled truffle artifact; the ABI used for
// calls is embedded and replaced by the artifact's ABI when one is present.
package ethereum
