// Package cli defines the Cobra command tree for the brat CLI. Each file in
// this package registers one top-level command (add, update, watch, etc.)
// with the root command. Commands only parse flags and format output; the
// tracking, sweep and host packages do the work.
package cli
