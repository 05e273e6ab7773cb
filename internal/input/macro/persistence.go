package macro

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/modalkeys/internal/input/key"
)

// Store saves and restores the registers of a Recorder.
type Store interface {
	Save(recorder *Recorder) error
	Load(recorder *Recorder) error
}

// persistedMacro represents a single macro for persistence.
// Keys are kept in Vim notation, e.g. "d<C-w>j".
type persistedMacro struct {
	Register string `json:"register"`
	Keys     string `json:"keys"`
}

// persistedData is the root structure for macro persistence.
type persistedData struct {
	Version     int              `json:"version"`
	SavedAt     time.Time        `json:"saved_at"`
	LastPlayed  string           `json:"last_played,omitempty"`
	LastCommand string           `json:"last_command,omitempty"`
	Macros      []persistedMacro `json:"macros"`
}

const currentVersion = 2

func snapshot(recorder *Recorder) persistedData {
	data := persistedData{
		Version:     currentVersion,
		SavedAt:     time.Now().UTC(),
		LastCommand: recorder.LastCommand(),
	}
	if last := recorder.LastPlayed(); last != 0 {
		data.LastPlayed = string(last)
	}
	for _, reg := range recorder.ListRegisters() {
		data.Macros = append(data.Macros, persistedMacro{
			Register: string(reg),
			Keys:     recorder.Get(reg).String(),
		})
	}
	return data
}

func decode(jsonData []byte) (persistedData, error) {
	var data persistedData
	if err := json.Unmarshal(jsonData, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal macros: %w", err)
	}
	if data.Version > currentVersion {
		return data, fmt.Errorf("unsupported macros version: %d (max supported: %d)",
			data.Version, currentVersion)
	}
	return data, nil
}

// registerName returns the single register rune of s, or 0.
func registerName(s string) rune {
	rs := []rune(s)
	if len(rs) != 1 || !IsValidRegister(rs[0]) {
		return 0
	}
	return rs[0]
}

// JSONFile stores macros in a JSON file.
type JSONFile struct {
	Path string
}

// Save implements Store.
func (f JSONFile) Save(recorder *Recorder) error { return Save(recorder, f.Path) }

// Load implements Store.
func (f JSONFile) Load(recorder *Recorder) error { return Load(recorder, f.Path) }

// Save writes all macros from the recorder to the specified file.
// The file is written atomically using a temporary file and rename.
func Save(recorder *Recorder, path string) error {
	jsonData, err := json.MarshalIndent(snapshot(recorder), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal macros: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, jsonData, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load reads macros from the specified file into the recorder.
// Existing macros in the recorder are replaced. A missing file is not an error.
func Load(recorder *Recorder, path string) error {
	jsonData, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read macros file: %w", err)
	}

	data, err := decode(jsonData)
	if err != nil {
		return err
	}

	registers := make(map[rune]key.Sequence, len(data.Macros))
	for _, m := range data.Macros {
		reg := registerName(m.Register)
		if reg == 0 {
			continue
		}
		events, err := key.ParseSequence(m.Keys)
		if err != nil {
			return fmt.Errorf("register %c: %w", reg, err)
		}
		registers[reg] = events
	}

	recorder.SetAllRegisters(registers)
	if reg := registerName(data.LastPlayed); reg != 0 {
		recorder.SetLastPlayed(reg)
	}
	recorder.SetLastCommand(data.LastCommand)
	return nil
}

// LoadOrCreate loads macros from the specified file, creating an empty file if it doesn't exist.
func LoadOrCreate(recorder *Recorder, path string) error {
	if err := Load(recorder, path); err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Save(recorder, path)
	}
	return nil
}

// DefaultMacrosPath returns the default path for storing macros.
// On Unix-like systems: ~/.config/modalkeys/macros.json
// On Windows: %APPDATA%/modalkeys/macros.json
func DefaultMacrosPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "modalkeys", "macros.json"), nil
}

// Export exports macros to a portable format (for sharing/backup).
func Export(recorder *Recorder) ([]byte, error) {
	return json.MarshalIndent(snapshot(recorder), "", "  ")
}

// Import imports macros from JSON data.
// With merge set, registers that already hold a macro are kept.
func Import(recorder *Recorder, jsonData []byte, merge bool) error {
	data, err := decode(jsonData)
	if err != nil {
		return err
	}

	for _, m := range data.Macros {
		reg := registerName(m.Register)
		if reg == 0 {
			continue
		}
		if merge && recorder.HasMacro(reg) {
			continue
		}
		events, err := key.ParseSequence(m.Keys)
		if err != nil {
			return fmt.Errorf("register %c: %w", reg, err)
		}
		if err := recorder.Set(reg, events); err != nil {
			return fmt.Errorf("failed to set register %c: %w", reg, err)
		}
	}
	return nil
}
