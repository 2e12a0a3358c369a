package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fairyhunter13/cv-matcher/internal/domain"
)

const uniqueViolation = "23505"

const candidateColumns = `id, name, email, COALESCE(phone, ''), cv_content, original_file_name,
	COALESCE(skills, '{}'), COALESCE(experience, ''), COALESCE(education, ''),
	years_of_experience, created_at, updated_at`

// CandidateRepo persists and loads candidates using a minimal pgx pool.
type CandidateRepo struct{ Pool PgxPool }

// NewCandidateRepo constructs a CandidateRepo with the given pool.
func NewCandidateRepo(p PgxPool) *CandidateRepo { return &CandidateRepo{Pool: p} }

// Create stores a new candidate and returns its id (generates one if empty).
// A duplicate email maps to domain.ErrConflict.
func (r *CandidateRepo) Create(ctx domain.Context, c domain.Candidate) (string, error) {
	ctx, span := startSpan(ctx, "repo.candidates", "candidates.Create", "INSERT", "candidates")
	defer span.End()
	id := c.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()
	q := `INSERT INTO candidates (id, name, email, phone, cv_content, original_file_name, skills, experience, education, years_of_experience, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.Pool.Exec(ctx, q, id, c.Name, c.Email, c.Phone, c.CVContent, c.FileName,
		c.Skills, c.Experience, c.Education, c.YearsOfExperience, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", fmt.Errorf("op=candidate.create: %w: email %s already registered", domain.ErrConflict, c.Email)
		}
		return "", fmt.Errorf("op=candidate.create: %w", err)
	}
	return id, nil
}

// Get fetches a candidate by id.
func (r *CandidateRepo) Get(ctx domain.Context, id string) (domain.Candidate, error) {
	ctx, span := startSpan(ctx, "repo.candidates", "candidates.Get", "SELECT", "candidates")
	defer span.End()
	row := r.Pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id=$1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", domain.ErrNotFound)
		}
		return domain.Candidate{}, fmt.Errorf("op=candidate.get: %w", err)
	}
	return c, nil
}

// FindByEmail fetches a candidate by email.
func (r *CandidateRepo) FindByEmail(ctx domain.Context, email string) (domain.Candidate, error) {
	ctx, span := startSpan(ctx, "repo.candidates", "candidates.FindByEmail", "SELECT", "candidates")
	defer span.End()
	row := r.Pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE email=$1`, email)
	c, err := scanCandidate(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Candidate{}, fmt.Errorf("op=candidate.find_by_email: %w", domain.ErrNotFound)
		}
		return domain.Candidate{}, fmt.Errorf("op=candidate.find_by_email: %w", err)
	}
	return c, nil
}

// List returns all candidates, newest first.
func (r *CandidateRepo) List(ctx domain.Context) ([]domain.Candidate, error) {
	ctx, span := startSpan(ctx, "repo.candidates", "candidates.List", "SELECT", "candidates")
	defer span.End()
	rows, err := r.Pool.Query(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.list: %w", err)
	}
	out, err := collectCandidates(rows)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.list: %w", err)
	}
	return out, nil
}

// FindByYearsRange returns candidates whose years of experience lie in [minYears, maxYears].
func (r *CandidateRepo) FindByYearsRange(ctx domain.Context, minYears, maxYears int) ([]domain.Candidate, error) {
	ctx, span := startSpan(ctx, "repo.candidates", "candidates.FindByYearsRange", "SELECT", "candidates")
	defer span.End()
	q := `SELECT ` + candidateColumns + ` FROM candidates
		WHERE years_of_experience BETWEEN $1 AND $2 ORDER BY years_of_experience DESC, created_at DESC`
	rows, err := r.Pool.Query(ctx, q, minYears, maxYears)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.find_by_years: %w", err)
	}
	out, err := collectCandidates(rows)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.find_by_years: %w", err)
	}
	return out, nil
}

// SearchByName matches candidates whose name contains the given text, case-insensitively.
func (r *CandidateRepo) SearchByName(ctx domain.Context, name string) ([]domain.Candidate, error) {
	ctx, span := startSpan(ctx, "repo.candidates", "candidates.SearchByName", "SELECT", "candidates")
	defer span.End()
	q := `SELECT ` + candidateColumns + ` FROM candidates WHERE name ILIKE '%' || $1 || '%' ORDER BY name`
	rows, err := r.Pool.Query(ctx, q, name)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.search_by_name: %w", err)
	}
	out, err := collectCandidates(rows)
	if err != nil {
		return nil, fmt.Errorf("op=candidate.search_by_name: %w", err)
	}
	return out, nil
}

// Delete removes a candidate by id; rankings referencing it cascade.
func (r *CandidateRepo) Delete(ctx domain.Context, id string) error {
	ctx, span := startSpan(ctx, "repo.candidates", "candidates.Delete", "DELETE", "candidates")
	defer span.End()
	tag, err := r.Pool.Exec(ctx, `DELETE FROM candidates WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=candidate.delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("op=candidate.delete: %w", domain.ErrNotFound)
	}
	return nil
}

func scanCandidate(row pgx.Row) (domain.Candidate, error) {
	var c domain.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CVContent, &c.FileName,
		&c.Skills, &c.Experience, &c.Education, &c.YearsOfExperience, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func collectCandidates(rows pgx.Rows) ([]domain.Candidate, error) {
	defer rows.Close()
	out := []domain.Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
