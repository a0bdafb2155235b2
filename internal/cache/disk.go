package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Disk stores one JSON file per translation under Dir, named by the SHA-256
// of the source text. It survives restarts so repeated runs over similar
// documents avoid re-translating.
type Disk struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the cache directory and 0600
	// on files.
	StrictPerms bool
}

type diskEntry struct {
	Source     string    `json:"source"`
	Translated string    `json:"translated"`
	SavedAt    time.Time `json:"saved_at"`
}

func (c *Disk) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

// KeyFrom returns the file key for a source string.
func KeyFrom(source string) string {
	h := sha256.Sum256([]byte(source))
	return hex.EncodeToString(h[:])
}

func (c *Disk) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".json")
}

func (c *Disk) Get(_ context.Context, source string) (string, bool) {
	if err := c.ensureDir(); err != nil {
		return "", false
	}
	p := c.pathFor(KeyFrom(source))
	b, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	var e diskEntry
	// Guard against digest collisions and hand-edited files.
	if err := json.Unmarshal(b, &e); err != nil || e.Source != source {
		return "", false
	}
	// Touch mtime on access so age-based purges keep hot entries.
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return e.Translated, true
}

func (c *Disk) Put(_ context.Context, source, translated string) {
	if err := c.ensureDir(); err != nil {
		log.Warn().Err(err).Msg("translation cache unavailable")
		return
	}
	data, err := json.Marshal(diskEntry{Source: source, Translated: translated, SavedAt: time.Now().UTC()})
	if err != nil {
		return
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	p := c.pathFor(KeyFrom(source))
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		log.Warn().Err(err).Str("path", p).Msg("translation cache write failed")
		return
	}
	if err := os.Rename(tmp, p); err != nil {
		log.Warn().Err(err).Str("path", p).Msg("translation cache write failed")
		_ = os.Remove(tmp)
	}
}
