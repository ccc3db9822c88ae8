package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gatitown/internal/domain/cats"
)

type CatsRepo struct {
	db *sql.DB
}

func NewCatsRepo(db *sql.DB) *CatsRepo {
	return &CatsRepo{db: db}
}

// Create inserta el gato y sus fotos en una sola transacción.
func (r *CatsRepo) Create(ctx context.Context, c cats.Cat) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO cats (
			id, name, age_months, sex,
			neighborhood, city,
			short_description, full_description,
			sterilized, vaccines_up_to_date, dewormed,
			rescuer_name, rescuer_phone, rescuer_email,
			review_status, adoption_status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
	`,
		c.ID,
		c.Name,
		toNullInt(c.AgeMonths),
		string(c.Sex),
		c.Neighborhood,
		c.City,
		c.ShortDescription,
		c.FullDescription,
		c.Sterilized,
		c.VaccinesUpToDate,
		c.Dewormed,
		c.RescuerName,
		c.RescuerPhone,
		toNullString(c.RescuerEmail),
		string(c.ReviewStatus),
		string(c.AdoptionStatus),
		c.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert cat: %w", err)
	}

	for i, p := range c.Photos {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO photos (id, cat_id, url, is_primary, position)
			VALUES ($1,$2,$3,$4,$5)
		`, p.ID, c.ID, p.URL, p.IsPrimary, i); err != nil {
			return fmt.Errorf("insert photo: %w", err)
		}
	}

	return tx.Commit()
}

const selectCatsWithPhotos = `
	SELECT
		c.id, c.name, c.age_months, c.sex,
		c.neighborhood, c.city,
		c.short_description, c.full_description,
		c.sterilized, c.vaccines_up_to_date, c.dewormed,
		c.rescuer_name, c.rescuer_phone, c.rescuer_email,
		c.review_status, c.adoption_status, c.created_at,
		p.id, p.url, p.is_primary
	FROM cats c
	LEFT JOIN photos p ON p.cat_id = c.id
`

func (r *CatsRepo) GetByID(ctx context.Context, id string) (cats.Cat, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return cats.Cat{}, cats.ErrNotFound
	}

	rows, err := r.db.QueryContext(ctx, selectCatsWithPhotos+`
		WHERE c.id = $1
		ORDER BY p.is_primary DESC, p.position ASC
	`, id)
	if err != nil {
		return cats.Cat{}, err
	}
	defer rows.Close()

	out, err := scanCats(rows)
	if err != nil {
		return cats.Cat{}, err
	}
	if len(out) == 0 {
		return cats.Cat{}, cats.ErrNotFound
	}
	return out[0], nil
}

// List filtra por estados (vacío = sin filtro) y ordena por created_at desc.
func (r *CatsRepo) List(ctx context.Context, f cats.Filter) ([]cats.Cat, error) {
	rows, err := r.db.QueryContext(ctx, selectCatsWithPhotos+`
		WHERE ($1 = '' OR c.review_status = $1)
		  AND ($2 = '' OR c.adoption_status = $2)
		ORDER BY c.created_at DESC, c.id ASC, p.is_primary DESC, p.position ASC
	`, string(f.ReviewStatus), string(f.AdoptionStatus))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCats(rows)
}

// UpdateReviewStatus solo sale de PENDING. Si otra revisión ganó antes, la fila
// no cambia y se devuelve ErrBadState (o nil si ya quedó en el mismo estado).
func (r *CatsRepo) UpdateReviewStatus(ctx context.Context, id string, status cats.ReviewStatus) error {
	id = strings.TrimSpace(id)
	res, err := r.db.ExecContext(ctx,
		`UPDATE cats SET review_status = $2 WHERE id = $1 AND review_status = 'PENDING'`,
		id, string(status))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	var current string
	err = r.db.QueryRowContext(ctx, `SELECT review_status FROM cats WHERE id = $1`, id).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return cats.ErrNotFound
	case err != nil:
		return err
	case cats.ReviewStatus(current) == status:
		return nil
	default:
		return cats.ErrBadState
	}
}

func (r *CatsRepo) UpdateAdoptionStatus(ctx context.Context, id string, status cats.AdoptionStatus) error {
	return r.updateStatus(ctx, `UPDATE cats SET adoption_status = $2 WHERE id = $1`, id, string(status))
}

func (r *CatsRepo) updateStatus(ctx context.Context, query, id, status string) error {
	res, err := r.db.ExecContext(ctx, query, strings.TrimSpace(id), status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return cats.ErrNotFound
	}
	return nil
}

// scanCats agrupa las filas del LEFT JOIN (una por foto) respetando el orden de llegada.
func scanCats(rows *sql.Rows) ([]cats.Cat, error) {
	out := make([]cats.Cat, 0)
	index := map[string]int{}

	for rows.Next() {
		var (
			c            cats.Cat
			age          sql.NullInt64
			sex          string
			email        sql.NullString
			review       string
			adoption     string
			photoID      sql.NullString
			photoURL     sql.NullString
			photoPrimary sql.NullBool
		)
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&age,
			&sex,
			&c.Neighborhood,
			&c.City,
			&c.ShortDescription,
			&c.FullDescription,
			&c.Sterilized,
			&c.VaccinesUpToDate,
			&c.Dewormed,
			&c.RescuerName,
			&c.RescuerPhone,
			&email,
			&review,
			&adoption,
			&c.CreatedAt,
			&photoID,
			&photoURL,
			&photoPrimary,
		); err != nil {
			return nil, err
		}

		i, seen := index[c.ID]
		if !seen {
			if age.Valid {
				v := int(age.Int64)
				c.AgeMonths = &v
			}
			if email.Valid {
				v := email.String
				c.RescuerEmail = &v
			}
			c.Sex = cats.Sex(sex)
			c.ReviewStatus = cats.ReviewStatus(review)
			c.AdoptionStatus = cats.AdoptionStatus(adoption)
			c.Photos = []cats.Photo{}

			out = append(out, c)
			i = len(out) - 1
			index[c.ID] = i
		}

		if photoID.Valid {
			out[i].Photos = append(out[i].Photos, cats.Photo{
				ID:        photoID.String,
				CatID:     out[i].ID,
				URL:       photoURL.String,
				IsPrimary: photoPrimary.Valid && photoPrimary.Bool,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func toNullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func toNullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
