// Package cli provides the interactive closetsync command-line client.
//
// It works directly on the local node's catalog and image store, so it runs
// without the HTTP API. Typical flow: log in, browse or add images, then
// sync them to the cloud node. A background watcher probes the cloud node
// and shows online/offline in the prompt.
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
