package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvaleed/warden/internal/domain"
	"github.com/mvaleed/warden/internal/storage"
)

// UserRepository implements storage.UserRepository using PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `
	u.id, u.login, u.email, u.password_hash, u.first_name, u.last_name,
	u.image_url, u.lang_key, u.activated, u.activation_key, u.reset_key,
	u.reset_date, u.created_by, u.created_at, u.modified_by, u.modified_at,
	COALESCE(array_agg(a.authority_name ORDER BY a.authority_name)
		FILTER (WHERE a.authority_name IS NOT NULL), '{}')`

const userFrom = `
	FROM users u
	LEFT JOIN user_authority a ON a.user_id = u.id`

// FindByLogin retrieves a user by login. Logins are stored lower-cased, so
// the lookup key must already be normalized.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx,
		`SELECT `+userColumns+userFrom+` WHERE u.login = $1 GROUP BY u.id`, login)

	return scanUser(row)
}

// FindByEmail retrieves a user by email, case-insensitively.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx,
		`SELECT `+userColumns+userFrom+` WHERE LOWER(u.email) = LOWER($1) GROUP BY u.id`, email)

	return scanUser(row)
}

// FindByID retrieves a user by id.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx,
		`SELECT `+userColumns+userFrom+` WHERE u.id = $1 GROUP BY u.id`, id)

	return scanUser(row)
}

// FindByActivationKey retrieves the pending user holding the activation key.
// Activated accounts never match: their key has been consumed.
func (r *UserRepository) FindByActivationKey(ctx context.Context, key string) (*domain.User, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx,
		`SELECT `+userColumns+userFrom+
			` WHERE u.activation_key = $1 AND NOT u.activated GROUP BY u.id`, key)

	return scanUser(row)
}

// FindByResetKey retrieves the user holding the password reset key.
func (r *UserRepository) FindByResetKey(ctx context.Context, key string) (*domain.User, error) {
	db := getDB(ctx, r.pool)

	row := db.QueryRow(ctx,
		`SELECT `+userColumns+userFrom+` WHERE u.reset_key = $1 GROUP BY u.id`, key)

	return scanUser(row)
}

// Create stores a new user and its authorities.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `
		INSERT INTO users (
			id, login, email, password_hash, first_name, last_name,
			image_url, lang_key, activated, activation_key, reset_key,
			reset_date, created_by, created_at, modified_by, modified_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		user.ID,
		user.Login,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.ImageURL,
		user.LangKey,
		user.Activated,
		user.ActivationKey,
		user.ResetKey,
		user.ResetDate,
		user.CreatedBy,
		user.CreatedAt,
		user.ModifiedBy,
		user.ModifiedAt,
	)
	if err != nil {
		return mapError(err)
	}

	return r.replaceAuthorities(ctx, db, user.ID, user.Authorities)
}

// Update saves changes to an existing user, replacing its authority set.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	db := getDB(ctx, r.pool)

	result, err := db.Exec(ctx, `
		UPDATE users SET
			login = $2,
			email = $3,
			password_hash = $4,
			first_name = $5,
			last_name = $6,
			image_url = $7,
			lang_key = $8,
			activated = $9,
			activation_key = $10,
			reset_key = $11,
			reset_date = $12,
			modified_by = $13,
			modified_at = $14
		WHERE id = $1`,
		user.ID,
		user.Login,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.ImageURL,
		user.LangKey,
		user.Activated,
		user.ActivationKey,
		user.ResetKey,
		user.ResetDate,
		user.ModifiedBy,
		time.Now().UTC(),
	)
	if err != nil {
		return mapError(err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := db.Exec(ctx,
		`DELETE FROM user_authority WHERE user_id = $1`, user.ID); err != nil {
		return mapError(err)
	}

	return r.replaceAuthorities(ctx, db, user.ID, user.Authorities)
}

// Delete removes a user by login. Missing logins are a no-op.
func (r *UserRepository) Delete(ctx context.Context, login string) error {
	db := getDB(ctx, r.pool)

	_, err := db.Exec(ctx, `DELETE FROM users WHERE login = $1`, login)
	return mapError(err)
}

// List retrieves one page of users ordered by login.
func (r *UserRepository) List(ctx context.Context, page storage.PageRequest) ([]domain.User, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx,
		`SELECT `+userColumns+userFrom+
			` GROUP BY u.id ORDER BY u.login LIMIT $1 OFFSET $2`,
		page.Limit(), page.Offset())
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return users, nil
}

// Authorities lists every authority name known to the system.
func (r *UserRepository) Authorities(ctx context.Context) ([]string, error) {
	db := getDB(ctx, r.pool)

	rows, err := db.Query(ctx, `SELECT name FROM authority ORDER BY name`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, mapError(err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return names, nil
}

func (r *UserRepository) replaceAuthorities(ctx context.Context, db DBTX, userID uuid.UUID, authorities []string) error {
	for _, name := range authorities {
		if _, err := db.Exec(ctx,
			`INSERT INTO user_authority (user_id, authority_name) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, userID, name); err != nil {
			return mapError(err)
		}
	}
	return nil
}

// scannable is satisfied by both pgx.Row and pgx.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*domain.User, error) {
	var user domain.User

	err := row.Scan(
		&user.ID,
		&user.Login,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.ImageURL,
		&user.LangKey,
		&user.Activated,
		&user.ActivationKey,
		&user.ResetKey,
		&user.ResetDate,
		&user.CreatedBy,
		&user.CreatedAt,
		&user.ModifiedBy,
		&user.ModifiedAt,
		&user.Authorities,
	)
	if err != nil {
		return nil, mapError(err)
	}

	return &user, nil
}
