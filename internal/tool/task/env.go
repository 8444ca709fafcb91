package task

import (
	"errors"
	"sort"
	"strings"

	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
)

var errEnvLine = errors.New("expected KEY=VALUE")

// parseEnvFile parses KEY=VALUE lines. Blank lines and # comments are skipped
// and one level of matching single or double quotes is removed. Multi-line
// values and variable expansion are not supported.
func parseEnvFile(path string, data []byte) (map[string]string, error) {
	env := make(map[string]string)
	for i, rawLine := range content.SplitLines(string(data)) {
		line := strings.TrimSpace(rawLine)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, &EnvFileError{Path: path, Line: i + 1, Cause: errEnvLine}
		}
		value = strings.TrimSpace(value)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		env[key] = value
	}
	return env, nil
}

// buildEnv layers supplied variables over the host environment. When the
// policy carries an env allowlist, host variables outside it are dropped;
// explicitly supplied variables are always kept.
func buildEnv(policy commandPolicy, host []string, supplied map[string]string) []string {
	merged := make(map[string]string, len(host)+len(supplied))
	for _, kv := range host {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		if policy.EnvFiltering() && !policy.IsEnvAllowed(k) {
			continue
		}
		merged[k] = v
	}
	for k, v := range supplied {
		merged[k] = v
	}

	env := make([]string, 0, len(merged))
	for k, v := range merged {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}
