package opsqueue

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/milestonehq/milestone/internal/apperr"
	"github.com/milestonehq/milestone/internal/catalog"
)

const quarantineDirName = ".quarantine"

// Quarantine moves fileID's on-disk content to
// {drive}/.quarantine/{YYYY-MM-DD}/{relative_path}, updates its catalog
// path to match, and marks it quarantined. It never deletes the file.
func Quarantine(ctx context.Context, cat *catalog.Catalog, fileID int64, now time.Time) error {
	f, err := cat.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	root, err := cat.GetRoot(ctx, f.RootID)
	if err != nil {
		return err
	}
	drive, err := cat.GetDrive(ctx, root.DriveID)
	if err != nil {
		return err
	}

	srcAbs := filepath.Join(root.Path, f.Path)
	destAbs := filepath.Join(drive.MountPath, quarantineDirName, now.UTC().Format("2006-01-02"), f.Path)

	if err := checkMovable(srcAbs); err != nil {
		return apperr.Invalidf("opsqueue.Quarantine", "%w", err)
	}
	if err := os.MkdirAll(filepath.Dir(destAbs), 0o755); err != nil {
		return apperr.TransientIOf("opsqueue.Quarantine", "create quarantine directory: %w", err)
	}
	if err := os.Rename(srcAbs, destAbs); err != nil {
		return apperr.TransientIOf("opsqueue.Quarantine", "move to quarantine: %w", err)
	}

	if err := cat.QuarantineFile(ctx, fileID, destAbs); err != nil {
		return err
	}

	return cat.LogAction(ctx, "opsqueue", &fileID, "quarantine", fmt.Sprintf("%s -> %s", srcAbs, destAbs))
}

// Restore moves a quarantined file back to its original root-relative
// location and resets its hash status to pending. The file's catalog
// path (set by Quarantine) must still point under
// {drive}/.quarantine/{date}/ for the original relative path to be
// recoverable.
func Restore(ctx context.Context, cat *catalog.Catalog, fileID int64) error {
	f, err := cat.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	if f.HashStatus != catalog.HashQuarantined {
		return apperr.Invalidf("opsqueue.Restore", "file %d is not quarantined", fileID)
	}
	root, err := cat.GetRoot(ctx, f.RootID)
	if err != nil {
		return err
	}
	drive, err := cat.GetDrive(ctx, root.DriveID)
	if err != nil {
		return err
	}

	relPath, err := relativeToQuarantine(drive.MountPath, f.Path)
	if err != nil {
		return apperr.Invalidf("opsqueue.Restore", "%w", err)
	}

	if err := checkMovable(f.Path); err != nil {
		return apperr.Invalidf("opsqueue.Restore", "%w", err)
	}

	destAbs := filepath.Join(root.Path, relPath)
	if err := os.MkdirAll(filepath.Dir(destAbs), 0o755); err != nil {
		return apperr.TransientIOf("opsqueue.Restore", "recreate destination directory: %w", err)
	}
	if err := os.Rename(f.Path, destAbs); err != nil {
		return apperr.TransientIOf("opsqueue.Restore", "move out of quarantine: %w", err)
	}

	if err := cat.RestoreFile(ctx, fileID, relPath); err != nil {
		return err
	}

	return cat.LogAction(ctx, "opsqueue", &fileID, "restore", fmt.Sprintf("%s -> %s", f.Path, destAbs))
}

// checkMovable reports whether path's parent directory is writable, which
// is what os.Rename actually requires of the caller (moving an entry out
// of a directory needs write access to that directory, not to the entry
// itself). Surfacing this before the rename attempt turns an opaque EPERM
// into a clear, catalog-level error.
func checkMovable(path string) error {
	dirInfo, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("stat parent directory of %s: %w", path, err)
	}
	if dirInfo.Mode().Perm()&0o200 == 0 {
		return fmt.Errorf("parent directory of %s is not writable", path)
	}
	return nil
}

// relativeToQuarantine strips {mountPath}/.quarantine/{date}/ off an
// absolute quarantine path, returning the original root-relative path.
func relativeToQuarantine(mountPath, quarantinePath string) (string, error) {
	prefix := filepath.Join(mountPath, quarantineDirName)
	rel, err := filepath.Rel(prefix, quarantinePath)
	if err != nil {
		return "", fmt.Errorf("path %s is not under %s: %w", quarantinePath, prefix, err)
	}
	parts := splitFirst(rel)
	if parts.rest == "" {
		return "", fmt.Errorf("quarantine path %s has no date segment", quarantinePath)
	}
	return parts.rest, nil
}

type splitResult struct {
	date string
	rest string
}

func splitFirst(rel string) splitResult {
	for i := 0; i < len(rel); i++ {
		if rel[i] == filepath.Separator {
			return splitResult{date: rel[:i], rest: rel[i+1:]}
		}
	}
	return splitResult{date: rel}
}
