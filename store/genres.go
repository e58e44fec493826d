package store

import (
	"context"

	"bookstore/models"
	"bookstore/utils"
)

func (s *Store) ListGenres(ctx context.Context) ([]models.Genre, error) {
	query, args, err := s.qb.Select("id", "name").From("genres").OrderBy("name").ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build select genres")
	}

	genres := []models.Genre{}
	if err := s.db.SelectContext(ctx, &genres, query, args...); err != nil {
		return nil, utils.ErrorWithTrace(err, "select genres")
	}
	return genres, nil
}

func (s *Store) CreateGenre(ctx context.Context, g *models.Genre) error {
	query, args, err := s.qb.Insert("genres").
		Columns("name").
		Values(g.Name).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build insert genre")
	}

	if err := s.db.GetContext(ctx, &g.ID, query, args...); err != nil {
		return classify(err, "insert genre")
	}
	return nil
}
