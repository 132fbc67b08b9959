package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Store keeps a cart in a JSON file on the local device.
type Store struct {
	Path string
}

type fileFormat struct {
	Lines []Line `json:"lines"`
}

// Load reads the cart. A missing file yields an empty cart.
func (s Store) Load() (*Cart, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart: %w", err)
	}
	var file fileFormat
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", s.Path, err)
	}
	return restore(file.Lines), nil
}

// Save replaces the stored cart. The write goes through a temp file and a rename.
func (s Store) Save(c *Cart) error {
	data, err := json.MarshalIndent(fileFormat{Lines: c.Lines()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create cart dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".cart-*")
	if err != nil {
		return fmt.Errorf("create cart temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cart: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cart: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace cart: %w", err)
	}
	return nil
}
