// Package imaging provides the image encoding capability the pack store
// invokes: scaling arbitrary source images to the fixed square dimensions
// the external client requires and encoding them as WebP stickers or PNG
// tray icons, enforcing the per-file byte ceilings.
package imaging
