package compliance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"gopkg.in/yaml.v3"
)

const DefaultMinConfidence = 0.5

// Rules is the on-disk shape of the compliance configuration. The file is
// YAML unless its name ends in .json.
type Rules struct {
	Compliant     []string          `yaml:"compliant" json:"compliant"`
	NonCompliant  []string          `yaml:"non_compliant" json:"non_compliant"`
	Synonyms      map[string]string `yaml:"synonyms,omitempty" json:"synonyms,omitempty"`
	MinConfidence float64           `yaml:"min_confidence" json:"min_confidence"`
}

// DefaultRules matches the classes produced by the bundled clothing model.
func DefaultRules() Rules {
	return Rules{
		Compliant:     []string{"full sleeves shirt", "half sleeves shirt", "id card", "kurti", "pants"},
		NonCompliant:  []string{"shorts", "t-shirt"},
		MinConfidence: DefaultMinConfidence,
	}
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// LoadRules reads path. A missing file returns the defaults and os.ErrNotExist.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRules(), err
		}
		return Rules{}, fmt.Errorf("read compliance rules: %w", err)
	}

	rules := Rules{MinConfidence: DefaultMinConfidence}
	if isJSON(path) {
		err = json.Unmarshal(data, &rules)
	} else {
		err = yaml.Unmarshal(data, &rules)
	}
	if err != nil {
		return Rules{}, fmt.Errorf("decode compliance rules: %w", err)
	}
	return rules, nil
}

// SaveRules atomically replaces path with rules.
func SaveRules(path string, rules Rules) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(rules, "", "  ")
	} else {
		data, err = yaml.Marshal(rules)
	}
	if err != nil {
		return fmt.Errorf("encode compliance rules: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create compliance rules directory: %w", err)
		}
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write compliance rules: %w", err)
	}
	return nil
}
