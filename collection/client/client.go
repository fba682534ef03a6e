// Package client fala com a API REST do gateway de cartas.
//
// Respostas fora de 2xx viram *APIError, que faz Unwrap para os erros sentinela de
// domain (404 -> ErrNotFound, 401 -> ErrUnauthenticated).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"card-collection/collection/domain"
)

const DefaultServer = "http://localhost:3000"

// APIError é uma resposta de erro do servidor.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	default:
		return nil
	}
}

type Client struct {
	base  string
	token string
	http  *http.Client
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(server string, opts ...Option) *Client {
	server = strings.TrimRight(strings.TrimSpace(server), "/")
	if server == "" {
		server = DefaultServer
	}
	c := &Client{base: server, http: &http.Client{Timeout: 5 * time.Minute}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BatchResult espelha a resposta de POST /api/cards/batch.
type BatchResult struct {
	Results []domain.Card `json:"results"`
	Errors  []string      `json:"errors"`
}

// AddResult espelha a resposta de POST /api/collection.
type AddResult struct {
	Added             []string `json:"added"`
	Errors            []string `json:"errors"`
	Skipped           []string `json:"skipped"`
	TotalInCollection int      `json:"totalInCollection"`
}

type cardNamesRequest struct {
	CardNames []string `json:"cardNames"`
}

func (c *Client) Card(ctx context.Context, name string) (domain.Card, error) {
	var card domain.Card
	err := c.do(ctx, http.MethodGet, "/api/card/"+url.PathEscape(name), nil, &card)
	return card, err
}

func (c *Client) Batch(ctx context.Context, names []string) (BatchResult, error) {
	var res BatchResult
	err := c.do(ctx, http.MethodPost, "/api/cards/batch", cardNamesRequest{CardNames: nonNil(names)}, &res)
	return res, err
}

func (c *Client) Collection(ctx context.Context) ([]domain.Card, error) {
	var cards []domain.Card
	if err := c.do(ctx, http.MethodGet, "/api/collection", nil, &cards); err != nil {
		return nil, err
	}
	return cards, nil
}

func (c *Client) Add(ctx context.Context, names []string) (AddResult, error) {
	var res AddResult
	err := c.do(ctx, http.MethodPost, "/api/collection", cardNamesRequest{CardNames: nonNil(names)}, &res)
	return res, err
}

// Remove apaga uma carta e devolve o total restante.
func (c *Client) Remove(ctx context.Context, name string) (int, error) {
	var res struct {
		TotalInCollection int `json:"totalInCollection"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/collection/"+url.PathEscape(name), nil, &res)
	return res.TotalInCollection, err
}

func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/collection", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e) == nil {
			apiErr.Message = e.Error
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// IsNotFound é um atalho para errors.Is(err, domain.ErrNotFound).
func IsNotFound(err error) bool { return errors.Is(err, domain.ErrNotFound) }

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
