package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML document into out after substituting ${VAR} and
// ${VAR:-fallback} references from the environment. It is used for files the
// operator edits by hand, such as template parameter files.
func Load(filePath string, out interface{}) error {
	data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the operator
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	content := substituteEnvVars(string(data))
	if err := yaml.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// Save writes v to filePath as YAML
func Save(filePath string, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// substituteEnvVars replaces ${VAR_NAME} and ${VAR_NAME:-fallback} with
// environment variable values. Unterminated references are left as-is.
func substituteEnvVars(content string) string {
	var b strings.Builder
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			b.WriteString(content)
			return b.String()
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			b.WriteString(content)
			return b.String()
		}
		end += start

		b.WriteString(content[:start])
		b.WriteString(lookupRef(content[start+2 : end]))
		content = content[end+1:]
	}
}

func lookupRef(ref string) string {
	name, fallback, hasFallback := strings.Cut(ref, ":-")
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	if hasFallback {
		return fallback
	}
	return ""
}
