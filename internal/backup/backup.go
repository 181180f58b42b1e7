// Package backup provides tar.gz-based backup and restore for the
// homewatch snapshot database.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// Backup creates a tar.gz archive containing the snapshot database and an
// optional config file. It performs a WAL checkpoint before copying the
// database so the archive holds a consistent image.
func Backup(_ context.Context, dbPath, configPath, outputPath string) error {
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("database file not found: %w", err)
	}

	if err := checkpointWAL(dbPath); err != nil {
		return fmt.Errorf("WAL checkpoint failed: %w", err)
	}

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer outFile.Close()

	gw := gzip.NewWriter(outFile)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	if err := addFileToTar(tw, dbPath, filepath.Base(dbPath)); err != nil {
		return fmt.Errorf("adding database to archive: %w", err)
	}

	// The config file is best effort: include it when present, skip
	// silently when not.
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := addFileToTar(tw, configPath, filepath.Base(configPath)); err != nil {
				return fmt.Errorf("adding config to archive: %w", err)
			}
		}
	}

	return nil
}

// Restore extracts an archive created by Backup into dataDir. Existing
// files are only overwritten when force is set.
func Restore(_ context.Context, inputPath, dataDir string, force bool) error {
	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading archive entry: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}

		// Archive entries are flat basenames; reject anything that
		// would escape dataDir.
		name := filepath.Base(filepath.Clean(hdr.Name))
		if name == "." || name == ".." || name == string(filepath.Separator) {
			return fmt.Errorf("invalid archive entry name %q", hdr.Name)
		}
		target := filepath.Join(dataDir, name)

		if !force {
			if _, err := os.Stat(target); err == nil {
				return fmt.Errorf("%s already exists (use force to overwrite)", target)
			}
		}

		if err := extractFile(tr, target, hdr.FileInfo().Mode()); err != nil {
			return fmt.Errorf("extracting %s: %w", name, err)
		}
	}
}

// checkpointWAL opens the database, runs a TRUNCATE checkpoint to flush the
// WAL, and closes the connection.
func checkpointWAL(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// addFileToTar adds a single file to the tar archive under the given name.
func addFileToTar(tw *tar.Writer, filePath, archiveName string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = archiveName

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)
	return err
}

func extractFile(r io.Reader, target string, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, r)
	return err
}
