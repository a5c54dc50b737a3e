package meter

import (
	"fmt"
	"regexp"
	"strings"
)

// Endpoint is a fully resolved meter endpoint: where to send the
// request, what body to post and which headers to carry.
type Endpoint struct {
	URL     string
	Body    string
	Headers map[string]string
}

var (
	curlURLPattern    = regexp.MustCompile(`['"](https?://[^'"]+)['"]`)
	curlDataPattern   = regexp.MustCompile(`--data(?:-raw)?\s+(?:'([^']*)'|"([^"]*)")`)
	curlHeaderPattern = regexp.MustCompile(`-H\s+(?:'([^:']+):\s*([^']*)'|"([^:"]+):\s*([^"]*)")`)
)

// ParseCurlCommand resolves an Endpoint from a curl command line as
// copied from a browser's network inspector. The quoted URL is
// required; --data-raw and -H headers are optional.
func ParseCurlCommand(cmd string) (Endpoint, error) {
	ep := Endpoint{Headers: make(map[string]string)}

	m := curlURLPattern.FindStringSubmatch(cmd)
	if m == nil {
		return Endpoint{}, fmt.Errorf("curl command contains no quoted URL")
	}
	ep.URL = m[1]

	if m := curlDataPattern.FindStringSubmatch(cmd); m != nil {
		if m[1] != "" {
			ep.Body = m[1]
		} else {
			ep.Body = m[2]
		}
	}

	for _, m := range curlHeaderPattern.FindAllStringSubmatch(cmd, -1) {
		name, value := m[1], m[2]
		if name == "" {
			name, value = m[3], m[4]
		}
		ep.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	// Some exports embed the cookie inside a raw header blob rather
	// than a -H flag; recover it the same way.
	if _, ok := ep.Headers["Cookie"]; !ok {
		if start := strings.Index(cmd, "Cookie:"); start >= 0 {
			rest := cmd[start+len("Cookie:"):]
			if end := strings.Index(rest, `\r\n`); end >= 0 {
				ep.Headers["Cookie"] = strings.TrimSpace(rest[:end])
			}
		}
	}

	return ep, nil
}
