// Package provider serves pack metadata, sticker listings, and asset bytes
// to query clients, mirroring the row contract the external client consumes.
// It reads the filesystem on every call; there is no cache layer to drift
// out of sync with the pack tree.
package provider
