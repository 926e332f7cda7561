package gateway

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/shipshape-app/shipshape/internal/model"
)

type householdRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"join_code"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func mapHousehold(row householdRow) model.Household {
	return model.Household{
		ID:        row.ID,
		Name:      row.Name,
		JoinCode:  row.JoinCode,
		CreatedBy: row.CreatedBy,
		CreatedAt: row.CreatedAt,
	}
}

// joinCodeAlphabet omits I, O, 0 and 1 so codes read unambiguously.
const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateJoinCode returns a random 6-character join code.
func GenerateJoinCode() (string, error) {
	code := make([]byte, 6)
	max := big.NewInt(int64(len(joinCodeAlphabet)))
	for i := range code {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate join code: %w", err)
		}
		code[i] = joinCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

type createHouseholdRequest struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	JoinCode string `json:"join_code"`
}

// CreateHousehold creates a household with a generated join code, retrying
// up to 3 attempts when the code collides with an existing household.
// id may be empty for a server-assigned id, or a client uuid when the
// household was first created offline.
func (c *Client) CreateHousehold(ctx context.Context, id, name string) (*model.Household, error) {
	var row householdRow

	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		code, err := GenerateJoinCode()
		if err != nil {
			return err
		}

		err = c.do(ctx, "POST", "/api/v1/households", createHouseholdRequest{
			ID:       id,
			Name:     name,
			JoinCode: code,
		}, &row)
		if errors.Is(err, ErrConflict) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, ErrConflict) {
		return nil, fmt.Errorf("failed to generate a unique join code after multiple attempts, please try again")
	}
	if err != nil {
		return nil, fmt.Errorf("create household: %w", err)
	}

	h := mapHousehold(row)
	return &h, nil
}

// FindByJoinCode returns nil when no household has the code.
func (c *Client) FindByJoinCode(ctx context.Context, code string) (*model.Household, error) {
	var row householdRow
	err := c.do(ctx, "GET", "/api/v1/households/by-code/"+code, nil, &row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find household by join code: %w", err)
	}
	h := mapHousehold(row)
	return &h, nil
}

type joinHouseholdRequest struct {
	JoinCode string `json:"join_code"`
}

// JoinByCode joins the signed-in user to the household with the given
// code. The not-found error message is user-facing.
func (c *Client) JoinByCode(ctx context.Context, code string) (*model.Household, error) {
	var row householdRow
	err := c.do(ctx, "POST", "/api/v1/households/join", joinHouseholdRequest{JoinCode: code}, &row)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("no household found with join code %q, please check the code and try again", code)
	}
	if err != nil {
		return nil, fmt.Errorf("join household: %w", err)
	}
	h := mapHousehold(row)
	return &h, nil
}

// CurrentHousehold returns the household the signed-in user belongs to,
// or nil when they have not joined one yet.
func (c *Client) CurrentHousehold(ctx context.Context) (*model.Household, error) {
	var row householdRow
	err := c.do(ctx, "GET", "/api/v1/households/current", nil, &row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current household: %w", err)
	}
	h := mapHousehold(row)
	return &h, nil
}
