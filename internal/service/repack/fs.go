package repack

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// debianFiles is the order in which the generated metadata is overwritten.
var debianFiles = []string{"compat", "control", "copyright", "changelog"}

// relocatePayload moves <tree>/<product> to <tree>/opt/<product>.
func relocatePayload(tree, product string) error {
	optDir := filepath.Join(tree, "opt")
	if err := os.Mkdir(optDir, dirPermissions); err != nil {
		return fmt.Errorf("create %s: %w", optDir, err)
	}

	from := filepath.Join(tree, product)
	to := filepath.Join(optDir, product)

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("relocate payload: %w", err)
	}

	return nil
}

// writeDebianFiles overwrites the metadata alien generated in <tree>/debian.
func writeDebianFiles(tree string, files map[string][]byte) error {
	dir := filepath.Join(tree, "debian")

	for _, name := range debianFiles {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, files[name], fileMode); err != nil {
			return fmt.Errorf("write debian/%s: %w", name, err)
		}
	}

	return nil
}

// moveFile renames src to dst, copying when they live on different file systems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if err = copyFile(src, dst); err != nil {
		return err
	}

	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)

		return err
	}

	return out.Close()
}
