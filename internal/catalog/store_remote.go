package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

const (
	defaultRemoteTimeout   = 3 * time.Second
	defaultBreakerFailures = 5
	defaultBreakerOpen     = 10 * time.Second

	headerRequestID = "X-Request-Id"
)

type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker once exceeded.
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// RemoteStore forwards every operation to a catalog service over HTTP.
// It is safe for concurrent use.
type RemoteStore struct {
	BaseURL string
	Client  *http.Client

	breaker *gobreaker.CircuitBreaker[*http.Response]
}

func NewRemoteStore(baseURL string, client *http.Client, bs BreakerSettings) *RemoteStore {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	if client == nil {
		client = &http.Client{Timeout: defaultRemoteTimeout}
	}
	if bs.ConsecutiveFailures == 0 {
		bs.ConsecutiveFailures = defaultBreakerFailures
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = defaultBreakerOpen
	}

	return &RemoteStore{
		BaseURL: baseURL,
		Client:  client,
		breaker: gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        "catalog-remote",
			MaxRequests: 1,
			Timeout:     bs.OpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures > bs.ConsecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, ErrUnavailable)
			},
		}),
	}
}

func (s *RemoteStore) Ping(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodHead, s.BaseURL, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}
	return nil
}

func (s *RemoteStore) List(ctx context.Context) ([]Product, error) {
	return s.getList(ctx, s.BaseURL)
}

func (s *RemoteStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	return s.sendOne(ctx, http.MethodGet, s.itemURL(id), nil)
}

func (s *RemoteStore) Create(ctx context.Context, np NewProduct) (Product, error) {
	resp, err := s.do(ctx, http.MethodPost, s.BaseURL, np)
	if err != nil {
		return Product{}, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Product{}, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Product{}, fmt.Errorf("decode product: %w", err)
	}
	return p, nil
}

func (s *RemoteStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, bool, error) {
	return s.sendOne(ctx, http.MethodPut, s.itemURL(id), patch)
}

func (s *RemoteStore) Delete(ctx context.Context, id int64) (bool, error) {
	resp, err := s.do(ctx, http.MethodDelete, s.itemURL(id), nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode/100 == 2:
		return true, nil
	default:
		return false, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}
}

func (s *RemoteStore) ListByCategory(ctx context.Context, category string) ([]Product, error) {
	return s.getList(ctx, s.BaseURL+"?"+url.Values{"category": {category}}.Encode())
}

func (s *RemoteStore) ListInStock(ctx context.Context) ([]Product, error) {
	return s.getList(ctx, s.BaseURL+"?inStock=true")
}

func (s *RemoteStore) Search(ctx context.Context, query string, f SearchFilter) ([]Product, error) {
	return s.getList(ctx, s.BaseURL+"/search?"+searchParams(query, f).Encode())
}

// searchParams carries q always and each filter field only when set.
func searchParams(query string, f SearchFilter) url.Values {
	v := url.Values{"q": {query}}
	if f.Category != nil {
		v.Set("category", *f.Category)
	}
	if f.MinPrice != nil {
		v.Set("minPrice", formatPrice(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", formatPrice(*f.MaxPrice))
	}
	if f.InStock != nil {
		v.Set("inStock", strconv.FormatBool(*f.InStock))
	}
	return v
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (s *RemoteStore) itemURL(id int64) string {
	return s.BaseURL + "/" + strconv.FormatInt(id, 10)
}

func (s *RemoteStore) getList(ctx context.Context, u string) ([]Product, error) {
	resp, err := s.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	out := make([]Product, 0, 16)
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return out, nil
}

// sendOne handles the single-record calls where 404 means "not found".
func (s *RemoteStore) sendOne(ctx context.Context, method, u string, body any) (Product, bool, error) {
	resp, err := s.do(ctx, method, u, body)
	if err != nil {
		return Product{}, false, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return Product{}, false, nil
	default:
		return Product{}, false, fmt.Errorf("%w: status=%d", ErrBadStatus, resp.StatusCode)
	}

	var p Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return Product{}, false, fmt.Errorf("decode product: %w", err)
	}
	return p, true, nil
}

// do sends one request through the breaker. Transport failures and 5xx
// answers count against the breaker; the 5xx response is still returned to
// the caller, which turns it into ErrBadStatus.
func (s *RemoteStore) do(ctx context.Context, method, u string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerRequestID, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	var serverErr *http.Response
	resp, err := s.breaker.Execute(func() (*http.Response, error) {
		resp, err := s.Client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, u, err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			serverErr = resp
			return nil, fmt.Errorf("%w: status=%d", ErrUnavailable, resp.StatusCode)
		}
		return resp, nil
	})
	if serverErr != nil {
		return serverErr, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
