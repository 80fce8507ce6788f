package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"childminder/internal/dbs/models"
	"childminder/pkg/domain"
	"childminder/pkg/platform/sentinel"
)

const memberColumns = `id, application_id, role, position, date_of_birth, created_at,
	certificate_number, capita, within_three_months, enhanced_check, on_update, certificate_info,
	lookup_number, lookup_found, lookup_date_of_birth, lookup_issued_at, lookup_certificate_info`

// PostgresStore persists household members in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// memberRow flattens a person into column values.
type memberRow struct {
	certificateNumber sql.NullString
	capita            sql.NullBool
	withinThreeMonths sql.NullBool
	enhancedCheck     sql.NullBool
	onUpdate          sql.NullBool
	certificateInfo   string
	lookupNumber      sql.NullString
	lookupFound       sql.NullBool
	lookupDOB         sql.NullTime
	lookupIssuedAt    sql.NullTime
	lookupInfo        sql.NullString
}

func toRow(p *models.Person) memberRow {
	check := p.DBS()
	row := memberRow{
		certificateNumber: nullString(check.CertificateNumber.String()),
		capita:            nullBool(check.Capita),
		withinThreeMonths: nullBool(check.WithinThreeMonths),
		enhancedCheck:     nullBool(check.EnhancedCheck),
		onUpdate:          nullBool(check.OnUpdate),
		certificateInfo:   check.CertificateInfo,
	}
	if l := check.Lookup; l != nil {
		row.lookupNumber = nullString(l.CertificateNumber.String())
		row.lookupFound = sql.NullBool{Bool: l.Found, Valid: true}
		row.lookupInfo = sql.NullString{String: l.CertificateInfo, Valid: true}
		if l.Found {
			row.lookupDOB = sql.NullTime{Time: l.DateOfBirth.Time(), Valid: true}
			row.lookupIssuedAt = sql.NullTime{Time: l.IssuedAt, Valid: true}
		}
	}
	return row
}

func (s *PostgresStore) Insert(ctx context.Context, p *models.Person) error {
	row := toRow(p)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO household_members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`,
		uuid.UUID(p.ID), uuid.UUID(p.ApplicationID), string(p.Role), p.Position, p.DateOfBirth.Time(), p.CreatedAt,
		row.certificateNumber, row.capita, row.withinThreeMonths, row.enhancedCheck, row.onUpdate, row.certificateInfo,
		row.lookupNumber, row.lookupFound, row.lookupDOB, row.lookupIssuedAt, row.lookupInfo,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("roster position %d taken: %w", p.Position, sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// UpdateDBS locks the member row, applies fn to the stored member and writes
// back only the certificate columns. Position is never written here.
func (s *PostgresStore) UpdateDBS(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, expected domain.CertificateNumber, fn func(*models.Person)) (*models.Person, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update dbs tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	p, err := scanMember(tx.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM household_members
		WHERE id = $1 AND application_id = $2
		FOR UPDATE
	`, uuid.UUID(personID), uuid.UUID(appID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("lock member: %w", err)
	}
	if p.CertificateNumber() != expected {
		return nil, fmt.Errorf("certificate number changed: %w", sentinel.ErrStale)
	}

	fn(p)
	row := toRow(p)
	res, err := tx.ExecContext(ctx, `
		UPDATE household_members SET
			certificate_number = $3,
			capita = $4,
			within_three_months = $5,
			enhanced_check = $6,
			on_update = $7,
			certificate_info = $8,
			lookup_number = $9,
			lookup_found = $10,
			lookup_date_of_birth = $11,
			lookup_issued_at = $12,
			lookup_certificate_info = $13,
			updated_at = NOW()
		WHERE id = $1 AND application_id = $2
	`,
		uuid.UUID(personID), uuid.UUID(appID),
		row.certificateNumber, row.capita, row.withinThreeMonths, row.enhancedCheck, row.onUpdate, row.certificateInfo,
		row.lookupNumber, row.lookupFound, row.lookupDOB, row.lookupIssuedAt, row.lookupInfo,
	)
	if err != nil {
		return nil, fmt.Errorf("update member dbs: %w", err)
	}
	if err := requireOneRow(res, "update member dbs"); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update dbs: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+memberColumns+`
		FROM household_members
		WHERE id = $1 AND application_id = $2
	`, uuid.UUID(personID), uuid.UUID(appID))

	p, err := scanMember(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find member: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, appID domain.ApplicationID) ([]*models.Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+memberColumns+`
		FROM household_members
		WHERE application_id = $1
	`, uuid.UUID(appID))
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []*models.Person
	for rows.Next() {
		p, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	slices.SortFunc(out, compareMembers)
	return out, nil
}

// RemoveAndReposition deletes the member and applies moved positions in one
// transaction. The position constraint is checked at commit.
func (s *PostgresStore) RemoveAndReposition(ctx context.Context, appID domain.ApplicationID, personID domain.PersonID, moved []*models.Person) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove member tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM household_members WHERE id = $1 AND application_id = $2
	`, uuid.UUID(personID), uuid.UUID(appID))
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if err := requireOneRow(res, "delete member"); err != nil {
		return err
	}

	for _, m := range moved {
		res, err := tx.ExecContext(ctx, `
			UPDATE household_members SET position = $3, updated_at = NOW()
			WHERE id = $1 AND application_id = $2
		`, uuid.UUID(m.ID), uuid.UUID(appID), m.Position)
		if err != nil {
			return fmt.Errorf("reposition member: %w", err)
		}
		if err := requireOneRow(res, "reposition member"); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("roster positions collide: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("commit remove member: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMember(sc scanner) (*models.Person, error) {
	var (
		id, appID uuid.UUID
		role      string
		position  int
		dob       time.Time
		createdAt time.Time
		row       memberRow
	)
	err := sc.Scan(
		&id, &appID, &role, &position, &dob, &createdAt,
		&row.certificateNumber, &row.capita, &row.withinThreeMonths, &row.enhancedCheck, &row.onUpdate, &row.certificateInfo,
		&row.lookupNumber, &row.lookupFound, &row.lookupDOB, &row.lookupIssuedAt, &row.lookupInfo,
	)
	if err != nil {
		return nil, err
	}

	p := models.NewPerson(domain.PersonID(id), domain.ApplicationID(appID), models.Role(role), domain.DateOf(dob), position, createdAt)
	check := models.DBSCheck{
		CertificateNumber: domain.CertificateNumber(row.certificateNumber.String),
		Capita:            fromNullBool(row.capita),
		WithinThreeMonths: fromNullBool(row.withinThreeMonths),
		EnhancedCheck:     fromNullBool(row.enhancedCheck),
		OnUpdate:          fromNullBool(row.onUpdate),
		CertificateInfo:   row.certificateInfo,
	}
	if row.lookupNumber.Valid {
		lookup := &models.LookupOutcome{
			CertificateNumber: domain.CertificateNumber(row.lookupNumber.String),
			Found:             row.lookupFound.Bool,
			CertificateInfo:   row.lookupInfo.String,
		}
		if row.lookupDOB.Valid {
			lookup.DateOfBirth = domain.DateOf(row.lookupDOB.Time)
		}
		if row.lookupIssuedAt.Valid {
			lookup.IssuedAt = row.lookupIssuedAt.Time.UTC()
		}
		check.Lookup = lookup
	}
	p.RestoreDBS(check)
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullBool(t models.Tristate) sql.NullBool {
	b := t.Ptr()
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func fromNullBool(b sql.NullBool) models.Tristate {
	if !b.Valid {
		return models.Unknown
	}
	return models.FromBool(b.Bool)
}

func requireOneRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("member not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
