package osint

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Credits returns the number of credits left on the account.
func (c *Client) Credits(ctx context.Context) (int, error) {
	body, err := c.do(ctx, http.MethodGet, "/credits", nil)
	if err != nil {
		return 0, err
	}
	return parseCredits(body)
}

// parseCredits accepts a bare number or an object with a credits field.
func parseCredits(body []byte) (int, error) {
	if !gjson.ValidBytes(body) {
		return 0, fmt.Errorf("failed to decode credits response: %q", strings.TrimSpace(string(body)))
	}
	r := gjson.ParseBytes(body)
	if r.IsObject() {
		r = r.Get("credits")
	}
	if r.Type != gjson.Number {
		return 0, fmt.Errorf("failed to decode credits response: no numeric credits value")
	}
	return int(r.Int()), nil
}
