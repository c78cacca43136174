package runtime

import (
	"strings"
)

// MountType specifies how a path is mounted into the container
type MountType string

const (
	// MountBind creates a bind mount from host to container
	MountBind MountType = "bind"
	// MountTmpfs creates a tmpfs mount
	MountTmpfs MountType = "tmpfs"
)

// Mount represents a filesystem mount in a container
type Mount struct {
	// Type is the mount type (bind, tmpfs)
	Type MountType

	// Source is the host path (bind only)
	Source string

	// Target is the path inside the container
	Target string

	// ReadOnly makes the mount read-only
	ReadOnly bool
}

// EnvironmentMounts returns the mounts for a new environment: the shared
// host directory at the same path, then one tmpfs per scratch path.
// Blank scratch paths are skipped.
func EnvironmentMounts(home string, tmpfsPaths []string) []Mount {
	shared := SharedMount(home)
	mounts := []Mount{{Type: MountBind, Source: shared, Target: shared}}
	for _, path := range tmpfsPaths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		mounts = append(mounts, Mount{Type: MountTmpfs, Target: path})
	}
	return mounts
}

// SharedMount is the host directory bind-mounted at the same path in every
// container: /Users on macOS hosts, /home otherwise.
func SharedMount(home string) string {
	if strings.HasPrefix(home, "/Users") {
		return "/Users"
	}
	return "/home"
}

// ToDockerArgs converts mounts to Docker/Podman command line arguments
func ToDockerArgs(mounts []Mount) []string {
	var args []string
	for _, mount := range mounts {
		switch mount.Type {
		case MountBind:
			spec := mount.Source + ":" + mount.Target
			if mount.ReadOnly {
				spec += ":ro"
			}
			args = append(args, "-v", spec)
		case MountTmpfs:
			args = append(args, "--tmpfs", mount.Target)
		}
	}
	return args
}
