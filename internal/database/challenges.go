package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"playhub/internal/models"

	"github.com/google/uuid"
)

const challengeColumns = `id, from_owner_id, from_owner_name, to_owner_id, to_owner_name,
       resource_id, date, slot, status, created_at, resolved_at`

func (db *DB) CreateChallenge(ctx context.Context, challenge *models.Challenge) error {
	if challenge.ID == "" {
		challenge.ID = uuid.NewString()
	}
	if challenge.Status == "" {
		challenge.Status = models.ChallengePending
	}
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx,
		`INSERT INTO challenges (id, from_owner_id, from_owner_name, to_owner_id, to_owner_name,
             resource_id, date, slot, status, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		challenge.ID, challenge.FromOwnerID, challenge.FromOwnerName,
		challenge.ToOwnerID, challenge.ToOwnerName,
		challenge.ResourceID, challenge.Date, challenge.Slot,
		challenge.Status, now,
	)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("insert challenge: %w", err))
	}
	challenge.CreatedAt = now
	return nil
}

func (db *DB) GetChallenge(ctx context.Context, id string) (*models.Challenge, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id)

	challenge, err := scanChallenge(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrapStoreErr(fmt.Errorf("get challenge: %w", err))
	}
	return challenge, nil
}

// ResolveChallenge conditionally moves a pending challenge to a terminal
// status. The WHERE clause on status makes concurrent resolutions settle
// on exactly one winner; losers see ErrAlreadyResolved.
func (db *DB) ResolveChallenge(ctx context.Context, id, status string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE challenges SET status = ?, resolved_at = ? WHERE id = ? AND status = ?`,
		status, time.Now().UTC(), id, models.ChallengePending,
	)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("resolve challenge: %w", err))
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return wrapStoreErr(fmt.Errorf("resolve challenge rows affected: %w", err))
	}
	if affected == 0 {
		// Either never existed or already terminal; disambiguate for the caller.
		var existing string
		err := db.QueryRowContext(ctx, `SELECT status FROM challenges WHERE id = ?`, id).Scan(&existing)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return wrapStoreErr(fmt.Errorf("check challenge status: %w", err))
		}
		return ErrAlreadyResolved
	}
	return nil
}

func (db *DB) ListChallengesForOwner(ctx context.Context, ownerID string) ([]*models.Challenge, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+challengeColumns+` FROM challenges
         WHERE to_owner_id = ? ORDER BY created_at DESC`,
		ownerID)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("list challenges for owner: %w", err))
	}
	defer rows.Close()

	var challenges []*models.Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, wrapStoreErr(fmt.Errorf("scan challenge: %w", err))
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(fmt.Errorf("iterate challenges: %w", err))
	}
	return challenges, nil
}

func scanChallenge(row rowScanner) (*models.Challenge, error) {
	c := &models.Challenge{}
	var resolvedAt sql.NullTime
	err := row.Scan(&c.ID, &c.FromOwnerID, &c.FromOwnerName, &c.ToOwnerID, &c.ToOwnerName,
		&c.ResourceID, &c.Date, &c.Slot, &c.Status, &c.CreatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		c.ResolvedAt = &t
	}
	return c, nil
}
