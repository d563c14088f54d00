package build

import (
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

func localCopy(src, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	// clonefile refuses to overwrite
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := unix.Clonefile(src, target, 0); err != nil {
		slog.Debug("clonefile failed, copying", "src", src, "error", err)
		return copyFile(src, target)
	}
	return nil
}
