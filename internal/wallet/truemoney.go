// Package wallet redeems TrueMoney gift vouchers ("ang pao" links) into the
// platform's receiving wallet.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GiftHost must appear in every voucher link
const GiftHost = "gift.truemoney.com"

var (
	// ErrInvalidLink is returned for links that are not TrueMoney gift links
	ErrInvalidLink = errors.New("not a truemoney gift link")

	voucherCodeRe = regexp.MustCompile(`^[0-9A-Za-z]+$`)
)

// RedeemError is a rejection reported by the voucher service, e.g. an
// expired or already claimed voucher.
type RedeemError struct {
	Code    string
	Message string
}

func (e *RedeemError) Error() string {
	if e.Message == "" {
		return "voucher rejected: " + e.Code
	}
	return fmt.Sprintf("voucher rejected: %s (%s)", e.Code, e.Message)
}

// ParseGiftLink extracts the voucher code from a link such as
// https://gift.truemoney.com/campaign/?v=abc123
func ParseGiftLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, GiftHost) {
		return "", ErrInvalidLink
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	code := u.Query().Get("v")
	if code == "" || !voucherCodeRe.MatchString(code) {
		return "", ErrInvalidLink
	}
	return code, nil
}

// Client redeems vouchers into a fixed receiving phone number
type Client struct {
	baseURL    string
	phone      string
	httpClient *http.Client
}

// NewClient creates a voucher client for baseURL crediting phone
func NewClient(baseURL, phone string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		phone:   phone,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type redeemRequest struct {
	Mobile      string `json:"mobile"`
	VoucherHash string `json:"voucher_hash"`
}

type redeemResponse struct {
	Status struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	Data struct {
		Voucher struct {
			RedeemedAmountBaht decimal.NullDecimal `json:"redeemed_amount_baht"`
		} `json:"voucher"`
		MyTicket struct {
			AmountBaht decimal.NullDecimal `json:"amount_baht"`
		} `json:"my_ticket"`
	} `json:"data"`
}

// Redeem claims the voucher and returns the amount received in baht.
// It is not retried: a second attempt on a claimed voucher is always rejected.
func (c *Client) Redeem(ctx context.Context, voucherCode string) (decimal.Decimal, error) {
	if c == nil || c.baseURL == "" || c.phone == "" {
		return decimal.Zero, fmt.Errorf("wallet client not configured")
	}

	body, err := json.Marshal(redeemRequest{Mobile: c.phone, VoucherHash: voucherCode})
	if err != nil {
		return decimal.Zero, fmt.Errorf("encode request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/campaign/vouchers/%s/redeem", c.baseURL, url.PathEscape(voucherCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return decimal.Zero, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var result redeemResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return decimal.Zero, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || result.Status.Code != "SUCCESS" {
		code := result.Status.Code
		if code == "" {
			code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		return decimal.Zero, &RedeemError{Code: code, Message: result.Status.Message}
	}

	switch {
	case result.Data.MyTicket.AmountBaht.Valid:
		return result.Data.MyTicket.AmountBaht.Decimal, nil
	case result.Data.Voucher.RedeemedAmountBaht.Valid:
		return result.Data.Voucher.RedeemedAmountBaht.Decimal, nil
	}
	return decimal.Zero, fmt.Errorf("response has no amount")
}
