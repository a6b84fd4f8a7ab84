package graph

import (
	"context"
	"strconv"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/reelgraph/reelgraph-backend/internal/domain"
	"github.com/reelgraph/reelgraph-backend/internal/platform/operr"
)

// FindUser looks up a user node. found reports whether the node exists
// at all; profile.Name is empty for an existing node with no name yet.
func (s *Store) FindUser(ctx context.Context, userID int64) (profile domain.UserProfile, found bool, err error) {
	session := s.client.ReadSession(ctx)
	defer session.Close(ctx)

	row, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (u:User {userId: $user_id})
RETURN u.name AS name
`, map[string]any{"user_id": userID})
		if err != nil {
			return nil, err
		}
		records, err := res.Collect(ctx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, nil
		}
		return records[0], nil
	})
	if err != nil {
		return domain.UserProfile{}, false, operr.Wrap("graph.FindUser", strconv.FormatInt(userID, 10), err)
	}
	if row == nil {
		return domain.UserProfile{}, false, nil
	}

	rec := row.(*neo4j.Record)
	name, _ := rec.Get("name")
	nameStr, _ := name.(string)
	return domain.UserProfile{ID: userID, Name: nameStr}, true, nil
}

// EnsureUser creates the user node if absent. The merge is atomic at
// the store, so two concurrent creators cannot duplicate the node, and
// ON CREATE never overwrites a name a concurrent creator already set.
// The name that actually survived is returned.
func (s *Store) EnsureUser(ctx context.Context, userID int64, name string) (string, error) {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	row, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MERGE (u:User {userId: $user_id})
ON CREATE SET u.name = $name
RETURN u.name AS name
`, map[string]any{"user_id": userID, "name": name})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return "", operr.Wrap("graph.EnsureUser", strconv.FormatInt(userID, 10), err)
	}

	rec := row.(*neo4j.Record)
	got, _ := rec.Get("name")
	gotStr, _ := got.(string)
	return gotStr, nil
}

// SetUserName fills in a missing name on an existing node. coalesce
// keeps a name written by a concurrent session; the surviving name is
// returned either way.
func (s *Store) SetUserName(ctx context.Context, userID int64, name string) (string, error) {
	session := s.client.WriteSession(ctx)
	defer session.Close(ctx)

	row, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
MATCH (u:User {userId: $user_id})
SET u.name = coalesce(u.name, $name)
RETURN u.name AS name
`, map[string]any{"user_id": userID, "name": name})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return "", operr.Wrap("graph.SetUserName", strconv.FormatInt(userID, 10), err)
	}

	rec := row.(*neo4j.Record)
	got, _ := rec.Get("name")
	gotStr, _ := got.(string)
	return gotStr, nil
}
