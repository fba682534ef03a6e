package infra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"card-collection/collection/domain"
)

const (
	DefaultScryfallURL       = "https://api.scryfall.com"
	DefaultScryfallUserAgent = "card-collection/1.0"

	// documentos do Scryfall ficam bem abaixo disso
	maxCardBytes = 1 << 20
)

// ScryfallClient implementa domain.CardSource sobre GET /cards/named.
type ScryfallClient struct {
	baseURL   string
	http      *http.Client
	userAgent string
	timeout   time.Duration
}

type ScryfallOption func(*ScryfallClient)

func WithHTTPClient(c *http.Client) ScryfallOption {
	return func(s *ScryfallClient) {
		if c != nil {
			s.http = c
		}
	}
}

func WithUserAgent(ua string) ScryfallOption {
	return func(s *ScryfallClient) {
		if ua = strings.TrimSpace(ua); ua != "" {
			s.userAgent = ua
		}
	}
}

// WithTimeout define o timeout total de cada chamada (0 = sem timeout além do ctx).
// Vale qualquer que seja a ordem das opções; o *http.Client do chamador não é alterado.
func WithTimeout(d time.Duration) ScryfallOption {
	return func(s *ScryfallClient) { s.timeout = d }
}

func NewScryfallClient(baseURL string, opts ...ScryfallOption) *ScryfallClient {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultScryfallURL
	}
	s := &ScryfallClient{
		baseURL:   baseURL,
		http:      &http.Client{},
		userAgent: DefaultScryfallUserAgent,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.timeout > 0 {
		hc := *s.http
		hc.Timeout = s.timeout
		s.http = &hc
	}
	return s
}

// FetchNamed implementa domain.CardSource.
//
// Qualquer status fora de 2xx vira domain.ErrNotFound; falha de transporte ou corpo
// ilegível vira domain.ErrUpstream.
func (s *ScryfallClient) FetchNamed(ctx context.Context, mode domain.MatchMode, name string) (domain.Card, error) {
	endpoint := s.baseURL + "/cards/named?" + url.Values{string(mode): {name}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Card{}, fmt.Errorf("%w: build request: %v", domain.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.http.Do(req)
	if err != nil {
		return domain.Card{}, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxCardBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return domain.Card{}, fmt.Errorf("%w: %s lookup for %q returned %d", domain.ErrNotFound, mode, name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCardBytes))
	if err != nil {
		return domain.Card{}, fmt.Errorf("%w: read body: %v", domain.ErrUpstream, err)
	}
	card, err := domain.ParseCard(body)
	if err != nil {
		return domain.Card{}, fmt.Errorf("%w: decode card: %v", domain.ErrUpstream, err)
	}
	return card, nil
}
