package storage

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipDir упаковывает содержимое каталога в zip-архив.
// Существующий архив по тому же пути перезаписывается.
func ZipDir(srcDir, zipPath string) error {
	if err := os.Remove(zipPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove old zip %s: %w", zipPath, err)
	}
	if err := EnsureDir(filepath.Dir(zipPath)); err != nil {
		return err
	}

	out, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create zip %s: %w", zipPath, err)
	}
	defer out.Close()

	w := zip.NewWriter(out)
	defer w.Close()

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}

		f, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()

		_, err = io.Copy(f, in)
		return err
	})
	if err != nil {
		return fmt.Errorf("zip %s: %w", srcDir, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize zip %s: %w", zipPath, err)
	}
	return out.Sync()
}

// Unzip распаковывает архив в каталог назначения, полностью заменяя
// существующий каталог с тем же именем.
func Unzip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip %s: %w", zipPath, err)
	}
	defer r.Close()

	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("replace dir %s: %w", destDir, err)
	}
	if err := EnsureDir(destDir); err != nil {
		return err
	}

	for _, f := range r.File {
		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		// Защита от выхода за пределы каталога назначения.
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("unzip %s: illegal path %q", zipPath, f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := EnsureDir(target); err != nil {
				return err
			}
			continue
		}
		if err := EnsureDir(filepath.Dir(target)); err != nil {
			return err
		}

		if err := extractFile(f, target); err != nil {
			return fmt.Errorf("unzip %s: %w", zipPath, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}
