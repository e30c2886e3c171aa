package postgres

import (
	"context"
	"database/sql"
	"errors"

	"interviewcalendar/internal/domain"
)

type employerRepository struct {
	DB DBTX
}

func NewEmployerRepository(db DBTX) domain.EmployerDirectory {
	return &employerRepository{DB: db}
}

func (r *employerRepository) GetByID(ctx context.Context, id string) (*domain.Employer, error) {
	query := `
		SELECT id, company_name, contact_email, timezone, created_at
		FROM employers
		WHERE id = $1
	`
	e := &domain.Employer{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&e.ID, &e.CompanyName, &e.ContactEmail, &e.Timezone, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEmployerNotFound
		}
		return nil, err
	}
	return e, nil
}
