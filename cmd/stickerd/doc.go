// Package main hosts the stickerd CLI entrypoint and command graph.
//
// The Cobra-based command tree covers pack authoring (create, add-sticker,
// delete), validation against the client publishing rules, and the serve
// command that exposes pack metadata and assets over HTTP. It centralizes
// configuration resolution and store setup so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
