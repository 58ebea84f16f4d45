// Package restconn implements the exchange connectivity boundary for the
// venues without a Go SDK in use: Bybit, OKX, Bitget, and Upbit. Each client
// signs the venue's REST protocol directly and surfaces venue rejection text
// verbatim, since the per-venue classifiers match on that text.
package restconn

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quantrelay/quantrelay/pkg/errors"
)

const httpTimeout = 15 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// splitSymbol decomposes a canonical symbol: spot BASE/QUOTE, derivative
// BASE/QUOTE:SETTLE.
func splitSymbol(symbol string) (base, quote, settle string) {
	if i := strings.Index(symbol, ":"); i >= 0 {
		settle = symbol[i+1:]
		symbol = symbol[:i]
	}

	if i := strings.Index(symbol, "/"); i >= 0 {
		base = symbol[:i]
		quote = symbol[i+1:]
	} else {
		base = symbol
	}

	return base, quote, settle
}

func isDerivative(symbol string) bool {
	return strings.Contains(symbol, ":")
}

// isInverse reports a coin-margined symbol: settled in its own base asset.
func isInverse(symbol string) bool {
	base, _, settle := splitSymbol(symbol)

	return settle != "" && settle == base
}

// doJSON issues the request and decodes the body. Transport failures and
// non-2xx statuses come back as connectivity errors carrying the venue's
// response text.
func doJSON(ctx context.Context, client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "venue call failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "read venue response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Newf(errors.ErrCodeConnectivity, "venue returned %s: %s",
			resp.Status, clip(string(raw)))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(errors.ErrCodeConnectivity, "decode venue response", err)
	}

	return nil
}

// capitalize upper-cases the first ASCII letter: "buy" -> "Buy".
func capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func clip(s string) string {
	const limit = 300
	if len(s) <= limit {
		return s
	}

	return s[:limit] + "..."
}

func getRequest(base, path string, query url.Values) (*http.Request, error) {
	u := base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectivity, "build venue request", err)
	}

	return req, nil
}

func postRequest(base, path string, body []byte) (*http.Request, error) {
	req, err := http.NewRequest(http.MethodPost, base+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectivity, "build venue request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
