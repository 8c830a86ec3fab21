// Package packstore owns the on-disk pack tree. Every mutation, from
// identifier allocation to asset encoding to manifest writes, goes through
// the Store, which holds a filesystem lock so only one stickerd process
// writes at a time. Readers never need the lock because every file lands
// with an atomic rename.
package packstore
