// Package ui prints the progress of git and editor subprocesses on the console logger
// when the human-readable log format is selected.
package ui
