// Package ledger reads and writes mango repository state held by the ledger contract.
//
// Client wraps a Contract binding with typed operations over refs, snapshots,
// issues and pull requests. Enumerations use the contract's count-then-index
// accessors through IndexedSequence. Writes are confirmed with the gas
// heuristic: a receipt that consumed exactly the supplied gas limit is treated
// as a failed transaction.
package ledger
