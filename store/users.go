package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookstore/models"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
)

var userColumns = []string{"id", "username", "password", "role", "created_at", "updated_at"}

// CreateUser inserts u and fills its id and timestamps
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	query, args, err := s.qb.Insert("users").
		Columns("username", "password", "role", "created_at", "updated_at").
		Values(u.Username, u.Password, u.Role, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build insert user")
	}

	if err := s.db.GetContext(ctx, &u.ID, query, args...); err != nil {
		return classify(err, "insert user")
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getUser(ctx, squirrel.Eq{"username": username})
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getUser(ctx, squirrel.Eq{"id": id})
}

func (s *Store) getUser(ctx context.Context, where squirrel.Eq) (*models.User, error) {
	query, args, err := s.qb.Select(userColumns...).From("users").Where(where).ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build select user")
	}

	user := models.User{}
	if err := s.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, utils.ErrorWithTrace(err, "select user")
	}
	return &user, nil
}
