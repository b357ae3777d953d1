// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/oracle"
)

const maxResponseSize = 1 << 20

var (
	errSignature      = errors.New("signature request failed")
	errStatus         = errors.New("status probe failed")
	errUnexpectedCode = errors.New("unexpected status code")
	errNotAlive       = errors.New("unexpected ping response")
)

// requestPeer posts the proposal and probes the peer at the same time. Both
// calls must succeed, each within its own timeout.
func (c *Collector) requestPeer(ctx context.Context, location string, body []byte) (*oracle.SignerResponse, error) {
	var (
		response  *oracle.SignerResponse
		eg, egCtx = errgroup.WithContext(ctx)
	)
	eg.Go(func() error {
		r, err := c.requestSignature(egCtx, location, body)
		if err != nil {
			return fmt.Errorf("%w: %w", errSignature, err)
		}
		response = r
		return nil
	})
	eg.Go(func() error {
		if err := c.probe(egCtx, location); err != nil {
			return fmt.Errorf("%w: %w", errStatus, err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return response, nil
}

func (c *Collector) requestSignature(ctx context.Context, location string, body []byte) (*oracle.SignerResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.signatureTimeout)
	defer cancel()

	endpoint, err := url.JoinPath(location, oracle.SignaturePath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var response oracle.SignerResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &response, nil
}

func (c *Collector) probe(ctx context.Context, location string) error {
	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	endpoint, err := url.JoinPath(location, oracle.InfoPath)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?ping=1", nil)
	if err != nil {
		return err
	}

	respBody, err := c.do(req)
	if err != nil {
		return err
	}
	if got := string(respBody); got != oracle.PingResponse {
		return fmt.Errorf("%w: %q", errNotAlive, got)
	}
	return nil
}

func (c *Collector) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", errUnexpectedCode, resp.StatusCode)
	}
	return body, nil
}
