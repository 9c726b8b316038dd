package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vidfriends/appcore/internal/backend"
	"github.com/vidfriends/appcore/internal/db"
)

// uniqueViolation is the SQLSTATE of a duplicate key.
const uniqueViolation = "23505"

// PostgresAccountStore provides PostgreSQL-backed persistence for accounts.
type PostgresAccountStore struct {
	pool db.Pool
}

// NewPostgresAccountStore constructs an account store backed by PostgreSQL.
func NewPostgresAccountStore(pool db.Pool) *PostgresAccountStore {
	return &PostgresAccountStore{pool: pool}
}

// Create persists a new account record.
func (r *PostgresAccountStore) Create(ctx context.Context, account AccountRecord) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO accounts (id, email, name, password_hash, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, account.ID, strings.ToLower(account.Email), account.Name, account.PasswordHash, account.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

// FindByEmail fetches an account by its email address.
func (r *PostgresAccountStore) FindByEmail(ctx context.Context, email string) (AccountRecord, error) {
	return r.findOne(ctx, `
        SELECT id, email, name, password_hash, created_at
        FROM accounts
        WHERE email = $1
    `, strings.ToLower(email))
}

// FindByID fetches an account by id.
func (r *PostgresAccountStore) FindByID(ctx context.Context, id string) (AccountRecord, error) {
	return r.findOne(ctx, `
        SELECT id, email, name, password_hash, created_at
        FROM accounts
        WHERE id = $1
    `, id)
}

func (r *PostgresAccountStore) findOne(ctx context.Context, query string, arg string) (AccountRecord, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return AccountRecord{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var account AccountRecord
	if err := conn.QueryRow(ctx, query, arg).Scan(&account.ID, &account.Email, &account.Name, &account.PasswordHash, &account.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountRecord{}, ErrNotFound
		}
		return AccountRecord{}, fmt.Errorf("select account: %w", err)
	}
	account.CreatedAt = account.CreatedAt.UTC()

	return account, nil
}

// PostgresDocumentStore keeps collection documents in a JSONB column.
type PostgresDocumentStore struct {
	pool db.Pool
}

// NewPostgresDocumentStore constructs a document store backed by PostgreSQL.
func NewPostgresDocumentStore(pool db.Pool) *PostgresDocumentStore {
	return &PostgresDocumentStore{pool: pool}
}

// Insert stores a new document.
func (r *PostgresDocumentStore) Insert(ctx context.Context, doc backend.Document) error {
	fields, err := json.Marshal(doc.Fields)
	if err != nil {
		return fmt.Errorf("encode document fields: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO documents (collection, id, fields, created_at)
        VALUES ($1, $2, $3::JSONB, $4)
    `, doc.Collection, doc.ID, string(fields), doc.CreatedAt.UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}

	return nil
}

// List translates queries into SQL and returns the matching documents.
func (r *PostgresDocumentStore) List(ctx context.Context, collection string, queries []backend.Query) ([]backend.Document, error) {
	sql, args := buildListQuery(collection, queries)

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []backend.Document{}
	for rows.Next() {
		var (
			doc       backend.Document
			rawFields []byte
			createdAt time.Time
		)
		if err := rows.Scan(&doc.ID, &doc.Collection, &rawFields, &createdAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(rawFields, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
		doc.CreatedAt = createdAt.UTC()
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	return docs, nil
}

func buildListQuery(collection string, queries []backend.Query) (string, []any) {
	var (
		sb    strings.Builder
		args  = []any{collection}
		order []string
		limit = -1
	)

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	fieldArg := func(name string) string {
		return arg(name) + "::TEXT"
	}

	sb.WriteString("SELECT id, collection, fields, created_at FROM documents WHERE collection = $1")

	for _, q := range queries {
		switch q.Op {
		case backend.OpEqual:
			fmt.Fprintf(&sb, " AND fields->>%s = %s", fieldArg(q.Field), arg(q.Value))
		case backend.OpSearch:
			terms := backend.SearchTerms(q.Value)
			if len(terms) == 0 {
				sb.WriteString(" AND FALSE")
				continue
			}
			field := fieldArg(q.Field)
			for _, term := range terms {
				fmt.Fprintf(&sb, " AND fields->>%s ILIKE %s", field, arg("%"+escapeLike(term)+"%"))
			}
		case backend.OpOrderDesc:
			if q.Field == backend.CreatedAtField {
				order = append(order, "created_at DESC")
			} else {
				order = append(order, fmt.Sprintf("fields->>%s DESC", fieldArg(q.Field)))
			}
		case backend.OpLimit:
			if limit < 0 || q.Limit < limit {
				limit = q.Limit
			}
		}
	}

	order = append(order, "created_at ASC", "id ASC")
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(order, ", "))

	if limit >= 0 {
		fmt.Fprintf(&sb, " LIMIT %s", arg(limit))
	}

	return sb.String(), args
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}

var (
	_ AccountStore  = (*PostgresAccountStore)(nil)
	_ DocumentStore = (*PostgresDocumentStore)(nil)
)
