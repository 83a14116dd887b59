// Package vars loads per-group and per-host variable overlay documents.
// Each YAML file in a directory becomes one Overlay keyed by its base name
// minus extension. Loading is collect-and-continue: a malformed file adds
// an OverlayParseError for that key and the rest of the directory still
// loads.
package vars

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"invtidy/pkg/vault"
)

// Extensions recognised as overlay documents, in lookup order.
var Extensions = []string{".yaml", ".yml"}

// OverlayParseError reports one overlay document that could not be loaded.
// It is collected, not fatal.
type OverlayParseError struct {
	Key  string
	Path string
	Err  error
}

func (e *OverlayParseError) Error() string {
	return fmt.Sprintf("overlay %q (%s): %v", e.Key, e.Path, e.Err)
}

func (e *OverlayParseError) Unwrap() error { return e.Err }

// Kind is the closed set of value types an overlay variable can hold.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	// Composite covers lists and nested mappings, compared through their
	// canonical re-marshalled YAML.
	Composite
)

// Value is one overlay variable value. Scalars keep their parsed type so
// equality is exact: the integer 1 and the string "1" never compare equal.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
}

// Equal reports exact equality: same kind, same payload.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case Null:
		return true
	case Bool:
		return v.Bool == o.Bool
	case Int:
		return v.Int == o.Int
	case Float:
		return v.Float == o.Float
	default:
		return v.Str == o.Str
	}
}

// String returns the display form used in reports.
func (v Value) String() string {
	switch v.Kind {
	case Null:
		return "null"
	case Bool:
		return fmt.Sprintf("%t", v.Bool)
	case Int:
		return fmt.Sprintf("%d", v.Int)
	case Float:
		return fmt.Sprintf("%v", v.Float)
	default:
		return v.Str
	}
}

// Overlay is one variable document: variable name to value.
type Overlay map[string]Value

// Options controls overlay loading.
type Options struct {
	// VaultPassword, when non-empty, decrypts vault-prefixed string values
	// before they are compared. Without it encrypted values stay opaque.
	VaultPassword string
}

// LoadDir loads every overlay document in dir. The returned map holds the
// successfully parsed overlays; parse failures, key collisions and vault
// decryption failures are returned as a side list of per-file errors.
// Directory order is sorted, so results are deterministic.
func LoadDir(dir string, opts Options) (map[string]Overlay, []*OverlayParseError, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}

	overlays := make(map[string]Overlay)
	sources := make(map[string]string)
	var errs []*OverlayParseError

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		key := strings.TrimSuffix(entry.Name(), ext)
		path := filepath.Join(dir, entry.Name())

		if prev, ok := sources[key]; ok {
			errs = append(errs, &OverlayParseError{
				Key:  key,
				Path: path,
				Err:  fmt.Errorf("duplicate overlay document, already loaded from %s", prev),
			})
			continue
		}

		overlay, err := loadFile(path, opts)
		if err != nil {
			errs = append(errs, &OverlayParseError{Key: key, Path: path, Err: err})
			continue
		}
		overlays[key] = overlay
		sources[key] = path
	}
	return overlays, errs, nil
}

// FindDocument returns the overlay file path for key in dir, trying each
// recognised extension, or "" when none exists.
func FindDocument(dir, key string) string {
	for _, ext := range Extensions {
		path := filepath.Join(dir, key+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func loadFile(path string, opts Options) (Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	// An empty document is a present, empty overlay.
	overlay := make(Overlay, len(doc))
	for name, raw := range doc {
		v, err := toValue(raw)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", name, err)
		}
		if v.Kind == String && opts.VaultPassword != "" && vault.IsEncrypted(v.Str) {
			plain, err := vault.Decrypt(v.Str, opts.VaultPassword)
			if err != nil {
				return nil, fmt.Errorf("variable %q: %w", name, err)
			}
			v.Str = plain
		}
		overlay[name] = v
	}
	return overlay, nil
}

func toValue(raw interface{}) (Value, error) {
	switch n := raw.(type) {
	case nil:
		return Value{Kind: Null}, nil
	case bool:
		return Value{Kind: Bool, Bool: n}, nil
	case int:
		return Value{Kind: Int, Int: int64(n)}, nil
	case int64:
		return Value{Kind: Int, Int: n}, nil
	case uint64:
		return Value{Kind: Int, Int: int64(n)}, nil
	case float64:
		return Value{Kind: Float, Float: n}, nil
	case string:
		return Value{Kind: String, Str: n}, nil
	default:
		canonical, err := yaml.Marshal(raw)
		if err != nil {
			return Value{}, fmt.Errorf("unrepresentable value: %w", err)
		}
		return Value{Kind: Composite, Str: string(canonical)}, nil
	}
}
