// Package forks provides the fork, merge-fork and abort-merge commands.
// None of them contact the ledger.
package forks
