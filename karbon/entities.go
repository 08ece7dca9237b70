// ABOUTME: Entity-level verbs over the raw Karbon client
// ABOUTME: Fetch, create, and update remote records as whole snapshots
package karbon

import (
	"context"
	"fmt"
	"net/url"

	"github.com/avriosolutions/gehn/models"
)

// GetEntity fetches a single record by key. Query parameters pass through
// unchanged; Karbon uses OData-style options like $expand for related
// sub-objects.
func (c *Client) GetEntity(ctx context.Context, entityType models.EntityType, key string, query url.Values) (models.Entity, error) {
	endpoint := fmt.Sprintf("%ss/%s", entityType, key)
	raw, err := c.Do(ctx, "GET", endpoint, nil, query)
	if err != nil {
		return nil, err
	}
	entity, err := models.DecodeEntity(raw)
	if err != nil {
		return nil, fmt.Errorf("karbon: decoding %s %s: %w", entityType, key, err)
	}
	return entity, nil
}

// CreateEntity posts a new record and returns the created snapshot.
func (c *Client) CreateEntity(ctx context.Context, entityType models.EntityType, body models.Entity) (models.Entity, error) {
	raw, err := c.Do(ctx, "POST", fmt.Sprintf("%ss", entityType), body, nil)
	if err != nil {
		return nil, err
	}
	entity, err := models.DecodeEntity(raw)
	if err != nil {
		return nil, fmt.Errorf("karbon: decoding created %s: %w", entityType, err)
	}
	return entity, nil
}

// UpdateEntity replaces a record with the given snapshot. Karbon updates are
// full PUTs, so callers must send every field they fetched.
func (c *Client) UpdateEntity(ctx context.Context, entityType models.EntityType, key string, body models.Entity) (models.Entity, error) {
	endpoint := fmt.Sprintf("%ss/%s", entityType, key)
	raw, err := c.Do(ctx, "PUT", endpoint, body, nil)
	if err != nil {
		return nil, err
	}
	// Some update endpoints answer with plain text rather than the record.
	entity, err := models.DecodeEntity(raw)
	if err != nil || entity == nil {
		return body, nil
	}
	return entity, nil
}
