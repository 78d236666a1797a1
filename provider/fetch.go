package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// maxPayload bounds the size of a rules payload
const maxPayload = 1 << 20

// Fetch downloads the rules payload of the identity token stands for, a guest one when token is empty
func Fetch(ctx context.Context, client *http.Client, url, token string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, e := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if e != nil {
		return nil, e
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, e := client.Do(req)
	if e != nil {
		return nil, fmt.Errorf("fetch rules: %w", e)
	}
	defer resp.Body.Close()

	body, e := io.ReadAll(io.LimitReader(resp.Body, maxPayload))
	if e != nil {
		return nil, fmt.Errorf("read rules: %w", e)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rules: %s: %s", resp.Status, bytes.TrimSpace(body))
	}
	return body, nil
}

// Refresh fetches the rules payload and rebuilds the ability if it changed.
// The current ability is kept when the payload could not be fetched.
func (p *Provider) Refresh(ctx context.Context, client *http.Client, url, token string) (bool, error) {
	payload, e := Fetch(ctx, client, url, token)
	if e != nil {
		p.log.Error(e, "refresh rules", "url", url)
		return false, e
	}
	return p.SetPayload(payload)
}
