// Package cli provides the interactive medchat command-line client.
//
// It wires configuration, the HTTP API client and a REPL. A background
// watcher polls /health and flips the prompt between online and offline.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
