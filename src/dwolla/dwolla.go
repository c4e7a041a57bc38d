// Package dwolla is a thin client for the payment-rail API: customer
// creation and processor-token funding sources. No SDK exists for this in
// our dependency set, so the wire calls are made directly.
package dwolla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"finlink-server/src/errs"

	"github.com/google/uuid"
)

const (
	sandboxBaseURL    = "https://api-sandbox.dwolla.com"
	productionBaseURL = "https://api.dwolla.com"

	halContentType = "application/vnd.dwolla.v1.hal+json"

	clientTimeout = 15 * time.Second
)

type Client struct {
	baseURL string
	key     string
	secret  string

	httpClient *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(key, secret, env string) *Client {
	var base string
	switch env {
	case "sandbox":
		base = sandboxBaseURL
	case "production":
		base = productionBaseURL
	default:
		log.Fatalf("Invalid Dwolla environment: %s", env)
	}

	return &Client{
		baseURL: base,
		key:     key,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: clientTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

type CustomerProfile struct {
	FirstName   string
	LastName    string
	Email       string
	Address1    string
	City        string
	State       string
	PostalCode  string
	DateOfBirth string
	SSN         string
}

// CreateCustomer registers a personal customer and returns its resource
// URL from the Location header.
func (c *Client) CreateCustomer(ctx context.Context, profile CustomerProfile) (string, error) {
	body := map[string]string{
		"firstName":   profile.FirstName,
		"lastName":    profile.LastName,
		"email":       profile.Email,
		"type":        "personal",
		"address1":    profile.Address1,
		"city":        profile.City,
		"state":       profile.State,
		"postalCode":  profile.PostalCode,
		"dateOfBirth": profile.DateOfBirth,
		"ssn":         profile.SSN,
	}

	location, err := c.postForLocation(ctx, c.baseURL+"/customers", body)
	if err != nil {
		return "", errs.E(errs.KindFundingSource, "dwolla.CreateCustomer", err)
	}
	if location == "" {
		return "", errs.Errorf(errs.KindFundingSource, "dwolla.CreateCustomer", "no customer location returned")
	}
	return location, nil
}

// CreateFundingSource attaches the processor-token funding source to a
// customer and returns its resource URL. A 201 without a Location header
// is a failure: the caller must not persist anything it cannot reference.
func (c *Client) CreateFundingSource(ctx context.Context, customerURL, processorToken, name string) (string, error) {
	body := map[string]string{
		"plaidToken": processorToken,
		"name":       name,
	}

	location, err := c.postForLocation(ctx, customerURL+"/funding-sources", body)
	if err != nil {
		return "", errs.E(errs.KindFundingSource, "dwolla.CreateFundingSource", err)
	}
	if location == "" {
		return "", errs.Errorf(errs.KindFundingSource, "dwolla.CreateFundingSource", "no funding source location returned")
	}
	return location, nil
}

// RemoveFundingSource soft-deletes a funding source. Used as the
// compensating step when link persistence fails after the source exists.
func (c *Client) RemoveFundingSource(ctx context.Context, fundingSourceURL string) error {
	if _, err := c.postForLocation(ctx, fundingSourceURL, map[string]bool{"removed": true}); err != nil {
		return errs.E(errs.KindFundingSource, "dwolla.RemoveFundingSource", err)
	}
	return nil
}

// CustomerID extracts the customer id from its resource URL.
func CustomerID(customerURL string) string {
	if idx := strings.LastIndex(customerURL, "/"); idx >= 0 {
		return customerURL[idx+1:]
	}
	return customerURL
}

func (c *Client) postForLocation(ctx context.Context, endpoint string, body interface{}) (string, error) {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", halContentType)
	req.Header.Set("Accept", halContentType)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	return resp.Header.Get("Location"), nil
}

// ensureToken returns a cached client-credentials token, fetching a new
// one when the old one is within a minute of expiry.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.key, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token request returned %d: %s", resp.StatusCode, string(raw))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}

	c.token = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return c.token, nil
}
