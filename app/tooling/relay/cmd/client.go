package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ardanlabs/chainrelay/business/web/errs"
)

// call performs a request against the relay node and decodes the response
// into the value. Failures reported by the node are returned as errors
// carrying the node's message.
func call(ctx context.Context, method string, path string, body any, val any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url+path, r)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var er errs.Response
		if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
			return fmt.Errorf("relay: status %d", resp.StatusCode)
		}

		if er.Retryable {
			return fmt.Errorf("relay: %s (%s, retry later)", er.Error, er.Kind)
		}
		return fmt.Errorf("relay: %s", er.Error)
	}

	return json.NewDecoder(resp.Body).Decode(val)
}
