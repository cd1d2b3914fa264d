package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/khamrai2017/finance-tracker/internal/domain/import/matcher"
)

// Accounts lists the user's accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	var wires []accountWire
	if err := c.do(ctx, http.MethodGet, "/api/accounts", nil, nil, &wires); err != nil {
		return nil, err
	}
	accounts := make([]Account, len(wires))
	for i, w := range wires {
		accounts[i] = Account(w)
	}
	return accounts, nil
}

// Categories lists the user's categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var wires []categoryWire
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, nil, &wires); err != nil {
		return nil, err
	}
	categories := make([]Category, len(wires))
	for i, w := range wires {
		categories[i] = Category(w)
	}
	return categories, nil
}

// MerchantMappings fetches the saved merchant mappings.
func (c *Client) MerchantMappings(ctx context.Context) ([]matcher.MerchantMapping, error) {
	var wires []merchantMappingWire
	if err := c.do(ctx, http.MethodGet, "/api/merchant-mappings", nil, nil, &wires); err != nil {
		return nil, err
	}
	mappings := make([]matcher.MerchantMapping, len(wires))
	for i, w := range wires {
		mappings[i] = w.toDomain()
	}
	return mappings, nil
}

// Transactions lists stored transactions, optionally filtered to an account.
// Pass accountID 0 for all accounts.
func (c *Client) Transactions(ctx context.Context, accountID int64) ([]Transaction, error) {
	query := url.Values{}
	if accountID > 0 {
		query.Set("account_id", strconv.FormatInt(accountID, 10))
	}
	var wires []transactionWire
	if err := c.do(ctx, http.MethodGet, "/api/transactions", query, nil, &wires); err != nil {
		return nil, err
	}
	txns := make([]Transaction, len(wires))
	for i, w := range wires {
		t, err := w.toDomain()
		if err != nil {
			return nil, err
		}
		txns[i] = t
	}
	return txns, nil
}

// CreateTransaction stores a new transaction and returns it as the backend
// recorded it.
func (c *Client) CreateTransaction(ctx context.Context, create TransactionCreate) (Transaction, error) {
	var wire transactionWire
	if err := c.do(ctx, http.MethodPost, "/api/transactions", nil, create.toWire(), &wire); err != nil {
		return Transaction{}, err
	}
	return wire.toDomain()
}

// UpdateTransaction replaces the transaction with the given id.
func (c *Client) UpdateTransaction(ctx context.Context, id int64, update TransactionCreate) (Transaction, error) {
	var wire transactionWire
	path := fmt.Sprintf("/api/transactions/%d", id)
	if err := c.do(ctx, http.MethodPut, path, nil, update.toWire(), &wire); err != nil {
		return Transaction{}, err
	}
	return wire.toDomain()
}

// DeleteTransaction removes the transaction with the given id.
func (c *Client) DeleteTransaction(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", id), nil, nil, nil)
}
