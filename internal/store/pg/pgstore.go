package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"praktika.org/internal/account"
	"praktika.org/internal/internship"
	"praktika.org/internal/upload"
)

// Store implements account.Store and internship.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

var (
	_ account.Store    = (*Store)(nil)
	_ internship.Store = (*Store)(nil)
)

func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &Store{db: db}, nil
}

// New wraps an existing pool, mainly for tests.
func New(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// --- account.Store ---

func (s *Store) Create(ctx context.Context, acc *account.Account) error {
	_, err := s.db.ExecContext(ctx, `
		insert into accounts(id, role, name, email, department, phone, password_hash, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
	`, acc.ID, acc.Role, acc.Name, acc.Email, acc.Department, acc.Phone, acc.PasswordHash, acc.CreatedAt)
	if isUniqueViolation(err) {
		return account.ErrDuplicate
	}
	return err
}

func (s *Store) Find(ctx context.Context, id string) (*account.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		select id, role, name, email, department, phone, password_hash, created_at
		from accounts where id=$1
	`, id))
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		select id, role, name, email, department, phone, password_hash, created_at
		from accounts where email=lower($1)
	`, email))
}

func (s *Store) List(ctx context.Context, role string) ([]*account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, role, name, email, department, phone, password_hash, created_at
		from accounts
		where $1 = '' or role = $1
		order by id asc
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*account.Account
	for rows.Next() {
		var acc account.Account
		if err := rows.Scan(&acc.ID, &acc.Role, &acc.Name, &acc.Email, &acc.Department, &acc.Phone, &acc.PasswordHash, &acc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &acc)
	}
	return out, rows.Err()
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return account.ErrNotFound
	}
	return nil
}

func (s *Store) scanAccount(row *sql.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(&acc.ID, &acc.Role, &acc.Name, &acc.Email, &acc.Department, &acc.Phone, &acc.PasswordHash, &acc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, account.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

// --- internship.Store ---

func (s *Store) UpsertDetails(ctx context.Context, rec *internship.Details) error {
	file, err := marshalFile(rec.File)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into internship_details(identity, company, role, mentor_name, mentor_email,
			start_date, end_date, stipend, file, submitted_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		on conflict (identity) do update set
			company=excluded.company, role=excluded.role,
			mentor_name=excluded.mentor_name, mentor_email=excluded.mentor_email,
			start_date=excluded.start_date, end_date=excluded.end_date,
			stipend=excluded.stipend, file=excluded.file,
			submitted_at=excluded.submitted_at
	`, rec.Identity, rec.Company, rec.Role, rec.MentorName, rec.MentorEmail,
		rec.StartDate, rec.EndDate, rec.Stipend, file, rec.SubmittedAt)
	return err
}

func (s *Store) UpsertReport(ctx context.Context, rec *internship.Report) error {
	file, err := marshalFile(rec.File)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into internship_reports(identity, internship_type, role, start_month,
			mentor, summary, rating, declaration, file, submitted_at)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		on conflict (identity) do update set
			internship_type=excluded.internship_type, role=excluded.role,
			start_month=excluded.start_month, mentor=excluded.mentor,
			summary=excluded.summary, rating=excluded.rating,
			declaration=excluded.declaration, file=excluded.file,
			submitted_at=excluded.submitted_at
	`, rec.Identity, rec.InternshipType, rec.Role, rec.StartMonth,
		rec.Mentor, rec.Summary, rec.Rating, rec.Declaration, file, rec.SubmittedAt)
	return err
}

func (s *Store) Details(ctx context.Context, identity string) (*internship.Details, error) {
	var (
		rec  internship.Details
		file []byte
	)
	err := s.db.QueryRowContext(ctx, `
		select identity, company, role, mentor_name, mentor_email,
			start_date, end_date, stipend, file, submitted_at
		from internship_details where identity=$1
	`, identity).Scan(&rec.Identity, &rec.Company, &rec.Role, &rec.MentorName, &rec.MentorEmail,
		&rec.StartDate, &rec.EndDate, &rec.Stipend, &file, &rec.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internship.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.File, err = unmarshalFile(file); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Report(ctx context.Context, identity string) (*internship.Report, error) {
	var (
		rec  internship.Report
		file []byte
	)
	err := s.db.QueryRowContext(ctx, `
		select identity, internship_type, role, start_month,
			mentor, summary, rating, declaration, file, submitted_at
		from internship_reports where identity=$1
	`, identity).Scan(&rec.Identity, &rec.InternshipType, &rec.Role, &rec.StartMonth,
		&rec.Mentor, &rec.Summary, &rec.Rating, &rec.Declaration, &file, &rec.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, internship.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rec.File, err = unmarshalFile(file); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) DeleteByIdentity(ctx context.Context, identity string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `delete from internship_details where identity=$1`, identity); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `delete from internship_reports where identity=$1`, identity); err != nil {
		return err
	}
	return tx.Commit()
}

// --- helpers ---

func marshalFile(fd *upload.FileDescriptor) ([]byte, error) {
	if fd == nil {
		return nil, nil
	}
	return json.Marshal(fd)
}

func unmarshalFile(data []byte) (*upload.FileDescriptor, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var fd upload.FileDescriptor
	if err := json.Unmarshal(data, &fd); err != nil {
		return nil, err
	}
	return &fd, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
