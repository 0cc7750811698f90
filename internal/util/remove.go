package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SafeRemove удаляет файл, только если он лежит внутри baseDir и не является каталогом.
// Отсутствующий файл - не ошибка.
func SafeRemove(path, baseDir string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return fmt.Errorf("resolve base dir: %w", err)
	}

	cleanPath, err := filepath.EvalSymlinks(absPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("evaluate symlinks: %w", err)
	}

	cleanBase, err := filepath.EvalSymlinks(absBase)
	if err != nil {
		return fmt.Errorf("evaluate base dir symlinks: %w", err)
	}

	rel, err := filepath.Rel(cleanBase, cleanPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %s is outside base directory %s", cleanPath, cleanBase)
	}

	if isDangerousPath(cleanPath) {
		return fmt.Errorf("refusing to remove dangerous path: %s", cleanPath)
	}

	info, err := os.Lstat(cleanPath)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("refusing to remove directory: %s", cleanPath)
	}

	return os.Remove(cleanPath)
}

// SafeRemoveAll пытается удалить все файлы и возвращает объединённую ошибку.
func SafeRemoveAll(paths []string, baseDir string) error {
	var errs []error

	for _, p := range paths {
		if err := SafeRemove(p, baseDir); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}

	return errors.Join(errs...)
}

func isDangerousPath(path string) bool {
	clean := filepath.Clean(path)

	switch clean {
	case "/", `C:\`, "C:/",
		"/bin", "/boot", "/dev", "/etc", "/home", "/lib", "/lib64", "/opt", "/proc",
		"/root", "/sbin", "/sys", "/usr", "/var", "/tmp",
		"/Applications", "/Library", "/System", "/Users", "/Volumes":
		return true
	}

	// слишком короткий путь вроде /a
	parts := strings.Split(strings.Trim(clean, string(filepath.Separator)), string(filepath.Separator))

	return len(parts) < 2
}
