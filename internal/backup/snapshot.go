// Package backup writes point-in-time copies of the local cache
// database before destructive maintenance like history purges.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Snapshotter copies the cache database into a snapshot directory.
// When a passphrase is set, snapshots are encrypted with AES-256-GCM
// and carry an .enc suffix.
type Snapshotter struct {
	dir        string
	dbPath     string
	passphrase string
}

func NewSnapshotter(dir, dbPath, passphrase string) *Snapshotter {
	return &Snapshotter{dir: dir, dbPath: dbPath, passphrase: passphrase}
}

// Snapshot copies the database file and returns the snapshot path.
// The label identifies the operation that triggered the backup.
func (s *Snapshotter) Snapshot(label string) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := os.ReadFile(s.dbPath)
	if err != nil {
		return "", fmt.Errorf("read cache db: %w", err)
	}

	name := fmt.Sprintf("%s-%s.db", time.Now().UTC().Format("20060102-150405"), label)
	if s.passphrase != "" {
		data, err = Encrypt(data, s.passphrase)
		if err != nil {
			return "", fmt.Errorf("encrypt snapshot: %w", err)
		}
		name += ".enc"
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// Restore decrypts an encrypted snapshot back to plaintext database
// bytes. Unencrypted snapshots are returned as-is.
func (s *Snapshotter) Restore(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if filepath.Ext(path) != ".enc" {
		return data, nil
	}
	if s.passphrase == "" {
		return nil, fmt.Errorf("snapshot %s is encrypted but no passphrase is set", filepath.Base(path))
	}
	return Decrypt(data, s.passphrase)
}
