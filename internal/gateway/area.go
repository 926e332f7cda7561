package gateway

import (
	"context"
	"fmt"

	"github.com/shipshape-app/shipshape/internal/model"
)

type areaRow struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// ListAreas returns the global area catalog (kitchen, bathroom, ...).
func (c *Client) ListAreas(ctx context.Context) ([]model.Area, error) {
	var rows []areaRow
	if err := c.do(ctx, "GET", "/api/v1/areas", nil, &rows); err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}

	areas := make([]model.Area, 0, len(rows))
	for _, row := range rows {
		areas = append(areas, model.Area{ID: row.ID, Key: row.Key, Name: row.Name})
	}
	return areas, nil
}
