package envresolve

import (
	"bufio"
	"os"
	"strings"
)

// loadProperties parses a line-oriented KEY=value file. Blank lines and
// #-comments are skipped, unknown keys are kept verbatim, and lines
// without a separator are ignored rather than fatal; the file is written
// by provisioning tooling outside our control.
func loadProperties(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	props := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		props[key] = strings.Trim(strings.TrimSpace(value), `"`)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return props, nil
}
