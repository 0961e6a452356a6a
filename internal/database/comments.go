package database

import (
	"context"
	"fmt"

	"shareit/internal/models"
)

const commentSelect = `SELECT c.id, c.text, c.item_id, c.author_id, c.created, u.name
              FROM comments c
              JOIN users u ON u.id = c.author_id`

func (db *DB) CreateComment(ctx context.Context, comment *models.Comment) error {
	query := `INSERT INTO comments (text, item_id, author_id, created) VALUES (?, ?, ?, ?)`
	comment.Created = comment.Created.UTC()
	result, err := db.ExecContext(ctx, query, comment.Text, comment.ItemID, comment.AuthorID, comment.Created)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	comment.ID = id
	return nil
}

func (db *DB) GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error) {
	comments, err := db.queryComments(ctx, commentSelect+` WHERE c.item_id = ? ORDER BY c.id`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments by item: %w", err)
	}
	return comments, nil
}

func (db *DB) GetCommentsByItems(ctx context.Context, itemIDs []int64) ([]*models.Comment, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(itemIDs)
	comments, err := db.queryComments(ctx, commentSelect+` WHERE c.item_id IN (`+placeholders+`) ORDER BY c.id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get comments by items: %w", err)
	}
	return comments, nil
}

func (db *DB) queryComments(ctx context.Context, query string, args ...interface{}) ([]*models.Comment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Text, &c.ItemID, &c.AuthorID, &c.Created, &c.AuthorName); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}
