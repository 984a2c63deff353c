// Package payment provides the disbursement gateway client used as the
// payment processor for batch settlement.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/shopspring/decimal"

	"PeopleFlow-backend/internal/model"
)

// GatewayClient submits single payslip payments to an external disbursement
// API. It satisfies payroll.PaymentProcessor.
type GatewayClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewGatewayClientFromEnv builds a client from PAYMENT_GATEWAY_URL and
// PAYMENT_GATEWAY_API_KEY.
func NewGatewayClientFromEnv() (*GatewayClient, error) {
	baseURL := os.Getenv("PAYMENT_GATEWAY_URL")
	apiKey := os.Getenv("PAYMENT_GATEWAY_API_KEY")

	if baseURL == "" {
		return nil, fmt.Errorf("PAYMENT_GATEWAY_URL is not configured")
	}

	return &GatewayClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: http.DefaultClient,
	}, nil
}

// disbursementRequest is the request body of the gateway's pay endpoint
type disbursementRequest struct {
	Reference   string          `json:"reference"`
	BankAccount string          `json:"bank_account"`
	Amount      decimal.Decimal `json:"amount"`
}

// disbursementResponse is the response body of the gateway's pay endpoint
type disbursementResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Pay submits one payment. The call is bounded by ctx; a non-2xx response or
// a gateway status other than "ok" is returned as an error with the
// gateway-reported reason.
func (g *GatewayClient) Pay(ctx context.Context, item model.PayslipLineItem) error {
	account := ""
	if item.Employee.BankAccount != nil {
		account = *item.Employee.BankAccount
	}

	payload, err := json.Marshal(disbursementRequest{
		Reference:   fmt.Sprintf("payslip-%d", item.ID),
		BankAccount: account,
		Amount:      item.Total,
	})
	if err != nil {
		return fmt.Errorf("failed to encode disbursement request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"/v1/disbursements", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build disbursement request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("disbursement request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded disbursementResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}

	if decoded.Status != "ok" {
		reason := decoded.Reason
		if reason == "" {
			reason = "gateway declined the payment"
		}
		return fmt.Errorf("%s", reason)
	}

	return nil
}
