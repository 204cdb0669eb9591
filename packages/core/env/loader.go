package env

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment is the set of named variables loaded for one profile from
// an environment file pair.
type Environment struct {
	Name      string
	Variables map[string]string
}

// LoadEnvironment reads envFilePath (normally "http-client.env.json") and
// its sibling "http-client.private.env.json", both JSON objects shaped
// {profile: {name: scalar}}, and returns the variables defined for
// profile with the private file's values taking precedence.
//
// A missing file is not an error; a profile absent from either file
// simply contributes no variables.
func LoadEnvironment(envFilePath, profile string) (*Environment, error) {
	public, err := loadProfileFile(envFilePath, profile)
	if err != nil {
		return nil, fmt.Errorf("env: loading %s: %w", envFilePath, err)
	}

	privatePath := privateFilePath(envFilePath)
	private, err := loadProfileFile(privatePath, profile)
	if err != nil {
		return nil, fmt.Errorf("env: loading %s: %w", privatePath, err)
	}

	return &Environment{
		Name:      profile,
		Variables: MergeVariables(public, private),
	}, nil
}

func privateFilePath(envFilePath string) string {
	dir := filepath.Dir(envFilePath)
	base := filepath.Base(envFilePath)
	if strings.HasSuffix(base, ".env.json") {
		base = strings.TrimSuffix(base, ".env.json") + ".private.env.json"
	} else {
		base = strings.TrimSuffix(base, ".json") + ".private.json"
	}
	return filepath.Join(dir, base)
}

func loadProfileFile(path, profile string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var profiles map[string]map[string]any
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("malformed JSON: %w", err)
	}

	raw, ok := profiles[profile]
	if !ok {
		return nil, nil
	}

	vars := make(map[string]string, len(raw))
	for k, v := range raw {
		vars[k] = fmt.Sprintf("%v", v)
	}
	return vars, nil
}

// MergeVariables merges any number of string-keyed maps left to right;
// later maps win on key collision.
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
