package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dressguard/dressguard/internal/domain"
)

// ErrDuplicateViolation is returned when a record for the same evidence file exists
var ErrDuplicateViolation = errors.New("violation already recorded")

const dateLayout = "2006-01-02"

type ViolationRepository struct {
	pool PgxPool
}

func NewViolationRepository(pool PgxPool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

var _ ViolationRepositoryInterface = (*ViolationRepository)(nil)

func (r *ViolationRepository) Create(ctx context.Context, v *domain.ViolationRecord) error {
	query := `
		INSERT INTO violations (id, filename, identities, items, faces, logged_at, log_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::date)
	`

	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	faces := v.Faces
	if faces == nil {
		faces = []domain.FaceResult{}
	}
	facesJSON, err := json.Marshal(faces)
	if err != nil {
		return fmt.Errorf("create violation: marshal faces: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		v.ID,
		v.Filename,
		nonNil(v.Identities),
		nonNil(v.Items),
		facesJSON,
		v.LoggedAt,
		v.LoggedAt.Format(dateLayout),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateViolation
		}
		return fmt.Errorf("create violation: %w", err)
	}

	return nil
}

// Record stores a persisted violation; it lets the repository act as a logger sink
func (r *ViolationRepository) Record(ctx context.Context, v domain.ViolationRecord) error {
	return r.Create(ctx, &v)
}

// ListByDate returns the violations logged on the calendar day of date, oldest first
func (r *ViolationRepository) ListByDate(ctx context.Context, date time.Time) ([]domain.ViolationRecord, error) {
	query := `
		SELECT id, filename, identities, items, faces, logged_at
		FROM violations
		WHERE log_date = $1::date
		ORDER BY logged_at ASC
	`

	rows, err := r.pool.Query(ctx, query, date.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list violations: %w", err)
	}
	defer rows.Close()

	records := []domain.ViolationRecord{}
	for rows.Next() {
		var (
			v         domain.ViolationRecord
			facesJSON []byte
		)
		if err := rows.Scan(&v.ID, &v.Filename, &v.Identities, &v.Items, &facesJSON, &v.LoggedAt); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		if len(facesJSON) > 0 {
			if err := json.Unmarshal(facesJSON, &v.Faces); err != nil {
				return nil, fmt.Errorf("scan violation %s: decode faces: %w", v.ID, err)
			}
		}
		records = append(records, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate violations: %w", err)
	}

	return records, nil
}

// CountByIdentity returns how many violations each identity had on the day of date
func (r *ViolationRepository) CountByIdentity(ctx context.Context, date time.Time) (map[string]int, error) {
	query := `
		SELECT identity, COUNT(*)
		FROM violations, unnest(identities) AS identity
		WHERE log_date = $1::date
		GROUP BY identity
	`

	rows, err := r.pool.Query(ctx, query, date.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("count violations by identity: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			identity string
			count    int64
		)
		if err := rows.Scan(&identity, &count); err != nil {
			return nil, fmt.Errorf("scan identity count: %w", err)
		}
		counts[identity] = int(count)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity counts: %w", err)
	}

	return counts, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
