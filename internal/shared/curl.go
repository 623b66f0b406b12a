// Utilities for importing backend auth headers from a browser cURL command.
package shared

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// CurlHeaders represents headers and cookies parsed from a "Copy as cURL"
// command captured in the browser against the CrossWatch backend.
type CurlHeaders struct {
	Headers map[string]string
	Cookie  string
}

var (
	curlHeaderRegex = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRegex = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts headers.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	curlCmd := strings.ReplaceAll(string(data), "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	headers := make(map[string]string)
	var cookie string

	for _, match := range curlHeaderRegex.FindAllStringSubmatch(curlCmd, -1) {
		headerLine := match[1]
		if headerLine == "" {
			headerLine = match[2]
		}

		key, value, ok := strings.Cut(headerLine, ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			cookie = value
			continue
		}
		headers[key] = value
	}

	if m := curlCookieRegex.FindStringSubmatch(curlCmd); m != nil {
		if m[1] != "" {
			cookie = m[1]
		} else {
			cookie = m[2]
		}
	}

	if len(headers) == 0 && cookie == "" {
		return nil, fmt.Errorf("no headers found in curl command")
	}

	return &CurlHeaders{Headers: headers, Cookie: cookie}, nil
}

// ToHeaderMap flattens parsed headers (cookie included) into a single map
// suitable for attaching to poller requests.
func (c *CurlHeaders) ToHeaderMap() map[string]string {
	out := make(map[string]string, len(c.Headers)+1)
	for key, value := range c.Headers {
		out[key] = value
	}
	if c.Cookie != "" {
		out["Cookie"] = c.Cookie
	}
	return out
}

// WriteHeadersFile persists the flattened header map as JSON at path.
func (c *CurlHeaders) WriteHeadersFile(path string) error {
	data, err := json.MarshalIndent(c.ToHeaderMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal headers: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write headers file: %w", err)
	}

	return nil
}

// LoadHeadersFile reads a headers JSON file written by [CurlHeaders.WriteHeadersFile].
func LoadHeadersFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read headers file: %w", err)
	}

	var headers map[string]string
	if err := json.Unmarshal(data, &headers); err != nil {
		return nil, fmt.Errorf("failed to parse headers file: %w", err)
	}

	return headers, nil
}
