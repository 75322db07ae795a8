package gateways

import "context"

// ImageMounter manages the disk-image mount lifecycle. A mount acquired
// before traversal must be released on every exit path.
type ImageMounter interface {
	// Mount attaches a disk image read-only and returns the mounted volume root
	Mount(ctx context.Context, imagePath string) (string, error)

	// Unmount detaches a mounted volume and removes its mountpoint
	Unmount(ctx context.Context, volumePath string) error
}
