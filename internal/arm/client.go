package arm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultAPIPort is the fixed TCP port the legacy command API listens on.
	defaultAPIPort = "8880"
	// apiPath is the fixed command endpoint path.
	apiPath = "/ctrl"
)

// Client issues commands to the legacy arm HTTP API. It is stateless; the
// resource handle travels as an argument on every call.
type Client struct {
	// APIPort is the TCP port of the command API. Overridable for tests.
	APIPort string

	http *http.Client
}

// NewClient creates a command client with the given request timeout. The
// legacy API specifies no timeout of its own; commands against a powered-off
// arm would otherwise hang the caller indefinitely.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		APIPort: defaultAPIPort,
		http:    &http.Client{Timeout: timeout},
	}
}

// Command sends a single command and returns the raw response body, with
// surrounding whitespace trimmed but quoting intact. port selects the serial
// port ("0" addresses the API itself), handle is the open resource handle
// (0 before connect), and cmd is the device command string.
//
// A non-nil error always means a transport-level failure (unreachable API,
// timeout, non-200). Application-level failures, such as a handle of 0 in
// the body, are the caller's to interpret.
func (c *Client) Command(ctx context.Context, address, port string, handle int, cmd string) (string, error) {
	q := url.Values{}
	q.Set("port", port)
	q.Set("handle", strconv.Itoa(handle))
	q.Set("cmd", cmd)
	u := fmt.Sprintf("http://%s:%s%s?%s", address, c.APIPort, apiPath, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build command request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("arm api unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read arm api response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arm api status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return strings.TrimSpace(string(body)), nil
}

// Unquote strips exactly one leading and one trailing double quote when both
// are present. The legacy API wraps numeric replies in JSON string quotes;
// interior characters are never altered.
func Unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseHandle interprets a command response as a resource handle.
func ParseHandle(body string) (int, error) {
	h, err := strconv.Atoi(Unquote(body))
	if err != nil {
		return 0, fmt.Errorf("response %q is not a handle", body)
	}
	return h, nil
}
