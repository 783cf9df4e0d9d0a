// Package storage keeps a local vault of drafts: editor content whose save
// to the wiki failed. The vault file is encrypted with a passphrase.
package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/electr1fy0/bluewiki/crypto"
)

type Draft struct {
	URI     string    `json:"uri"`
	Content string    `json:"content"`
	SavedAt time.Time `json:"saved_at"`
}

type vaultFile struct {
	Version int               `json:"version"`
	Drafts  map[string]*Draft `json:"drafts"`
}

// Vault is safe for concurrent use.
type Vault struct {
	path     string
	password string

	mu     sync.Mutex
	drafts map[string]*Draft
	now    func() time.Time
}

// DefaultPath is ~/.bluewiki-drafts.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".bluewiki-drafts"), nil
}

// Open loads the vault at path, or starts an empty one when the file does
// not exist yet.
func Open(path, password string) (*Vault, error) {
	if password == "" {
		return nil, crypto.ErrEmptyPassphrase
	}
	v := &Vault{
		path:     path,
		password: password,
		drafts:   make(map[string]*Draft),
		now:      time.Now,
	}

	sealedJSON, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	if err != nil {
		return nil, err
	}

	var sealed crypto.Sealed
	if err := json.Unmarshal(sealedJSON, &sealed); err != nil {
		return nil, err
	}
	plain, err := crypto.Open(sealed, password)
	if err != nil {
		return nil, err
	}
	var vf vaultFile
	if err := json.Unmarshal(plain, &vf); err != nil {
		return nil, err
	}
	if vf.Drafts != nil {
		v.drafts = vf.Drafts
	}
	return v, nil
}

func (v *Vault) Stash(uri, content string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	prev, had := v.drafts[uri]
	v.drafts[uri] = &Draft{URI: uri, Content: content, SavedAt: v.now()}
	if err := v.persist(); err != nil {
		if had {
			v.drafts[uri] = prev
		} else {
			delete(v.drafts, uri)
		}
		return err
	}
	return nil
}

func (v *Vault) Drop(uri string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.drafts[uri]; !ok {
		return nil
	}
	prev := v.drafts[uri]
	delete(v.drafts, uri)
	if err := v.persist(); err != nil {
		v.drafts[uri] = prev
		return err
	}
	return nil
}

func (v *Vault) Get(uri string) (Draft, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	d, ok := v.drafts[uri]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// List returns drafts newest first.
func (v *Vault) List() []Draft {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Draft, 0, len(v.drafts))
	for _, d := range v.drafts {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SavedAt.After(out[j].SavedAt)
	})
	return out
}

func (v *Vault) persist() error {
	data, err := json.Marshal(vaultFile{Version: 1, Drafts: v.drafts})
	if err != nil {
		return err
	}
	sealed, err := crypto.Seal(data, v.password)
	if err != nil {
		return err
	}
	sealedJSON, err := json.Marshal(sealed)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(v.path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return os.WriteFile(v.path, sealedJSON, 0600)
}
