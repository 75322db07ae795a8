package gateways

import (
	"context"
	"errors"
	"fmt"

	"github.com/doorman/doorman/internal/domain/entities"
	"github.com/doorman/doorman/internal/domain/interfaces"
	"github.com/doorman/doorman/internal/external-adapters/hdiutil"
	"github.com/doorman/doorman/internal/external-adapters/toolexec"
)

// DiskImageGateway implements the ImageMounter interface over hdiutil
type DiskImageGateway struct {
	logger  interfaces.Logger
	mounter *hdiutil.Mounter
}

// NewDiskImageGateway creates a new disk image gateway
func NewDiskImageGateway(logger interfaces.Logger, runner *toolexec.Runner) *DiskImageGateway {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &DiskImageGateway{
		logger:  logger,
		mounter: hdiutil.NewMounter(runner),
	}
}

// Mount attaches a disk image read-only and returns the mounted volume root
func (g *DiskImageGateway) Mount(ctx context.Context, imagePath string) (string, error) {
	if !hdiutil.IsHdiutilInstalled() {
		return "", entities.NewToolError("hdiutil", fmt.Errorf("not found in PATH"))
	}

	g.logger.Info("mounting disk image",
		interfaces.F("image", imagePath),
	)

	volume, err := g.mounter.Mount(ctx, imagePath)
	if err != nil {
		if errors.Is(err, hdiutil.ErrArchitectureMismatch) {
			return "", entities.NewArchitectureError(imagePath, err)
		}
		return "", entities.NewMountError(imagePath, err)
	}

	g.logger.Debug("disk image mounted",
		interfaces.F("volume", volume),
	)
	return volume, nil
}

// Unmount detaches a mounted volume and removes its mountpoint
func (g *DiskImageGateway) Unmount(ctx context.Context, volumePath string) error {
	g.logger.Debug("detaching volume",
		interfaces.F("volume", volumePath),
	)

	if err := g.mounter.Unmount(ctx, volumePath); err != nil {
		return entities.NewMountError(volumePath, err)
	}
	return nil
}
