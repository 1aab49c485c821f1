// Package backup creates, lists and restores zip archives of the full
// ledger snapshot. Archives are named backup_<yyyymmdd_hhmmss>.zip and
// the oldest ones are pruned past the retention limit.
package backup

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/master-pd/marpd/internal/common"
	"github.com/master-pd/marpd/internal/store"
)

// Info is the backup_info.json manifest inside every archive.
type Info struct {
	Name      string         `json:"name"`
	Timestamp time.Time      `json:"timestamp"`
	Counts    map[string]int `json:"counts"`
	Version   string         `json:"version"`
}

// Manager owns the backup directory.
type Manager struct {
	store      *store.Store
	dir        string
	maxBackups int
}

// NewManager creates the backup manager and the backup directory.
func NewManager(st *store.Store, dir string, maxBackups int) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &common.StorageError{Op: "create backup dir", Err: err}
	}
	return &Manager{store: st, dir: dir, maxBackups: maxBackups}, nil
}

// Create snapshots the ledger into a new zip archive and prunes old
// backups past the retention limit. Returns the archive path.
func (m *Manager) Create() (string, error) {
	snap := m.store.Snapshot()
	name := fmt.Sprintf("backup_%s", snap.Timestamp.Format("20060102_150405"))
	path := filepath.Join(m.dir, name+".zip")

	info := Info{
		Name:      name,
		Timestamp: snap.Timestamp,
		Counts: map[string]int{
			"users":      len(snap.Users),
			"payments":   len(snap.Payments),
			"games":      len(snap.Games),
			"shop_items": len(snap.ShopItems),
		},
		Version: "1.0",
	}

	if err := writeArchive(path, snap, info); err != nil {
		return "", err
	}

	log.WithFields(log.Fields{
		"backup": name,
		"users":  info.Counts["users"],
	}).Info("Backup created")

	if err := m.prune(); err != nil {
		log.WithError(err).Warn("Backup pruning failed")
	}
	return path, nil
}

func writeArchive(path string, snap *store.Snapshot, info Info) error {
	// Write to a temp file first so a crash never leaves a half-written
	// archive with the final name.
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return &common.StorageError{Op: "create backup archive", Err: err}
	}

	zw := zip.NewWriter(f)
	entries := map[string]any{
		"users.json":       snap.Users,
		"payments.json":    snap.Payments,
		"games.json":       snap.Games,
		"shop.json":        snap.ShopItems,
		"backup_info.json": info,
	}
	// Stable entry order keeps archives byte-comparable.
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		w, err := zw.Create(name)
		if err == nil {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			err = enc.Encode(entries[name])
		}
		if err != nil {
			zw.Close()
			f.Close()
			os.Remove(tmp)
			return &common.StorageError{Op: "write backup entry " + name, Err: err}
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(tmp)
		return &common.StorageError{Op: "finalize backup archive", Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &common.StorageError{Op: "close backup archive", Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &common.StorageError{Op: "publish backup archive", Err: err}
	}
	return nil
}

// List returns the available backup names, newest first.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, &common.StorageError{Op: "list backups", Err: err}
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "backup_") && strings.HasSuffix(e.Name(), ".zip") {
			names = append(names, strings.TrimSuffix(e.Name(), ".zip"))
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Restore replaces the live ledger with the named backup's contents.
func (m *Manager) Restore(name string) error {
	path := filepath.Join(m.dir, filepath.Base(name)+".zip")
	zr, err := zip.OpenReader(path)
	if err != nil {
		return &common.StorageError{Op: "open backup " + name, Err: err}
	}
	defer zr.Close()

	snap := &store.Snapshot{}
	targets := map[string]any{
		"users.json":    &snap.Users,
		"payments.json": &snap.Payments,
		"games.json":    &snap.Games,
		"shop.json":     &snap.ShopItems,
	}

	for _, zf := range zr.File {
		target, ok := targets[zf.Name]
		if !ok {
			continue
		}
		if err := readEntry(zf, target); err != nil {
			return err
		}
		delete(targets, zf.Name)
	}
	if len(targets) > 0 {
		return &common.StorageError{
			Op:  "restore " + name,
			Err: fmt.Errorf("archive is missing %d ledger files", len(targets)),
		}
	}

	if err := m.store.Restore(snap); err != nil {
		return err
	}

	log.WithField("backup", name).Info("Backup restored")
	return nil
}

func readEntry(zf *zip.File, target any) error {
	rc, err := zf.Open()
	if err != nil {
		return &common.StorageError{Op: "open backup entry " + zf.Name, Err: err}
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return &common.StorageError{Op: "read backup entry " + zf.Name, Err: err}
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &common.StorageError{Op: "decode backup entry " + zf.Name, Err: err}
	}
	return nil
}

// Delete removes one backup archive.
func (m *Manager) Delete(name string) error {
	path := filepath.Join(m.dir, filepath.Base(name)+".zip")
	if err := os.Remove(path); err != nil {
		return &common.StorageError{Op: "delete backup " + name, Err: err}
	}
	return nil
}

// prune drops the oldest archives past the retention limit.
func (m *Manager) prune() error {
	names, err := m.List()
	if err != nil {
		return err
	}
	for _, name := range names[min(len(names), m.maxBackups):] {
		if err := m.Delete(name); err != nil {
			return err
		}
		log.WithField("backup", name).Debug("Old backup pruned")
	}
	return nil
}
