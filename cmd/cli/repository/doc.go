// Package repository provides the init and status commands.
package repository
