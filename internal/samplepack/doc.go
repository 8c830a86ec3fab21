// Package samplepack seeds a fresh data directory with a small
// demonstration pack built through the regular store pipeline.
package samplepack
