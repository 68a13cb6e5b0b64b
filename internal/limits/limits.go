package limits

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"stockreporter/internal/model"
)

// DefaultFile is the limits file looked up next to the executable.
const DefaultFile = "Stocks.json"

// ConfigError reports a limits file that could not be used.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("limits config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// DefaultPath resolves name relative to the directory of the running binary.
func DefaultPath(name string) (string, error) {
	if name == "" {
		name = DefaultFile
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locating executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), name), nil
}

// Resolve returns name unchanged when it is absolute and otherwise places it
// next to the executable.
func Resolve(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	return DefaultPath(name)
}

// Load reads the limit list from path, or from defaultPath when path is
// empty or blank. JSON is expected unless the file ends in .yaml or .yml.
//
// Duplicate symbols and inverted ranges are kept as written; both are
// logged so the operator can fix the file.
func Load(path, defaultPath string) ([]model.Limit, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPath
	}
	if strings.TrimSpace(path) == "" {
		return nil, &ConfigError{Path: path, Err: errors.New("no limits file given")}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	limits, err := parse(path, b)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	log.Debug().Str("path", path).Int("limits", len(limits)).Msg("limits loaded")
	return limits, nil
}

// Decode parses and checks a JSON limit array, as posted to the report server.
func Decode(b []byte) ([]model.Limit, error) {
	return parse("", b)
}

func parse(path string, b []byte) ([]model.Limit, error) {
	var limits []model.Limit
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &limits); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(b, &limits); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}

	seen := make(map[string]int, len(limits))
	for i, l := range limits {
		if strings.TrimSpace(l.Symbol) == "" {
			return nil, fmt.Errorf("entry %d: empty symbol", i)
		}
		key := model.SymbolKey(l.Symbol)
		if prev, ok := seen[key]; ok {
			log.Warn().Str("path", path).Str("symbol", l.Symbol).Int("entry", i).Int("previous", prev).
				Msg("duplicate symbol in limits; later entry wins")
		}
		seen[key] = i
		if l.Min.GreaterThan(l.Max) {
			log.Warn().Str("path", path).Str("symbol", l.Symbol).
				Str("min", l.Min.String()).Str("max", l.Max.String()).
				Msg("min is greater than max")
		}
	}
	return limits, nil
}
