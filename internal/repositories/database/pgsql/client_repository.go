package pgsql

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soadesk/billing_backoffice/internal/apperrors"
	"github.com/soadesk/billing_backoffice/internal/core/domain"
	portsrepo "github.com/soadesk/billing_backoffice/internal/core/ports/repositories"
)

type PgxClientRepository struct {
	BaseRepository
}

// newPgxClientRepository creates a new repository for client and contact data.
func newPgxClientRepository(pool *pgxpool.Pool) portsrepo.ClientRepositoryFacade {
	return &PgxClientRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ClientRepositoryFacade = (*PgxClientRepository)(nil)

const clientColumns = `client_id, name, normalized_name, status, billing_address, tin, client_group, tags, aliases, header_note, created_at, created_by, last_updated_at, last_updated_by`

func scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(
		&c.ClientID,
		&c.Name,
		&c.NormalizedName,
		&c.Status,
		&c.BillingAddress,
		&c.TIN,
		&c.Group,
		&c.Tags,
		&c.Aliases,
		&c.HeaderNote,
		&c.CreatedAt,
		&c.CreatedBy,
		&c.LastUpdatedAt,
		&c.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SaveClient inserts a new client row.
func (r *PgxClientRepository) SaveClient(ctx context.Context, client domain.Client) error {
	query := `
		INSERT INTO clients (` + clientColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.Pool.Exec(ctx, query,
		client.ClientID,
		client.Name,
		client.NormalizedName,
		client.Status,
		client.BillingAddress,
		client.TIN,
		client.Group,
		client.Tags,
		client.Aliases,
		client.HeaderNote,
		client.CreatedAt,
		client.CreatedBy,
		client.LastUpdatedAt,
		client.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to insert client "+client.ClientID, err)
	}
	return nil
}

// FindClientByID retrieves a client by its ID.
func (r *PgxClientRepository) FindClientByID(ctx context.Context, clientID string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE client_id = $1;`
	client, err := scanClient(r.Pool.QueryRow(ctx, query, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find client by ID "+clientID, err)
	}
	return client, nil
}

// ListClients retrieves clients ordered by normalized name.
func (r *PgxClientRepository) ListClients(ctx context.Context, status *domain.ClientStatus, limit int, offset int) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY normalized_name LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query clients", err)
	}
	defer rows.Close()

	clients := []domain.Client{}
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan client row", err)
		}
		clients = append(clients, *client)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating client rows", err)
	}
	return clients, nil
}

// HasProtectedChildren reports whether statements or payments still
// reference the client.
func (r *PgxClientRepository) HasProtectedChildren(ctx context.Context, clientID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM billing_statements WHERE client_id = $1)
		    OR EXISTS (SELECT 1 FROM payments WHERE client_id = $1);
	`
	var protected bool
	if err := r.Pool.QueryRow(ctx, query, clientID).Scan(&protected); err != nil {
		return false, apperrors.NewAppError(500, "failed to check children for client "+clientID, err)
	}
	return protected, nil
}

// UpdateClient rewrites the mutable client fields.
func (r *PgxClientRepository) UpdateClient(ctx context.Context, client domain.Client) error {
	query := `
		UPDATE clients
		SET name = $2,
		    normalized_name = $3,
		    status = $4,
		    billing_address = $5,
		    tin = $6,
		    client_group = $7,
		    tags = $8,
		    aliases = $9,
		    header_note = $10,
		    last_updated_at = $11,
		    last_updated_by = $12
		WHERE client_id = $1;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		client.ClientID,
		client.Name,
		client.NormalizedName,
		client.Status,
		client.BillingAddress,
		client.TIN,
		client.Group,
		client.Tags,
		client.Aliases,
		client.HeaderNote,
		client.LastUpdatedAt,
		client.LastUpdatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return apperrors.NewAppError(500, "failed to update client "+client.ClientID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteClient removes a client and its contacts.
func (r *PgxClientRepository) DeleteClient(ctx context.Context, clientID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if _, err := tx.Exec(ctx, `DELETE FROM contacts WHERE client_id = $1;`, clientID); err != nil {
		return apperrors.NewAppError(500, "failed to delete contacts for client "+clientID, err)
	}
	cmdTag, err := tx.Exec(ctx, `DELETE FROM clients WHERE client_id = $1;`, clientID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete client "+clientID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return r.Commit(ctx, tx)
}

// SaveContact upserts a contact row.
func (r *PgxClientRepository) SaveContact(ctx context.Context, contact domain.Contact) error {
	query := `
		INSERT INTO contacts (contact_id, client_id, name, email, phone, role, is_billing_recipient, created_at, created_by, last_updated_at, last_updated_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (contact_id) DO UPDATE
		SET name = EXCLUDED.name,
		    email = EXCLUDED.email,
		    phone = EXCLUDED.phone,
		    role = EXCLUDED.role,
		    is_billing_recipient = EXCLUDED.is_billing_recipient,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by;
	`
	_, err := r.Pool.Exec(ctx, query,
		contact.ContactID,
		contact.ClientID,
		contact.Name,
		contact.Email,
		contact.Phone,
		contact.Role,
		contact.IsBillingRecipient,
		contact.CreatedAt,
		contact.CreatedBy,
		contact.LastUpdatedAt,
		contact.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save contact "+contact.ContactID, err)
	}
	return nil
}

// FindContactsByClientID retrieves a client's contacts.
func (r *PgxClientRepository) FindContactsByClientID(ctx context.Context, clientID string) ([]domain.Contact, error) {
	query := `
		SELECT contact_id, client_id, name, email, phone, role, is_billing_recipient, created_at, created_by, last_updated_at, last_updated_by
		FROM contacts
		WHERE client_id = $1
		ORDER BY name;
	`
	rows, err := r.Pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query contacts for client "+clientID, err)
	}
	defer rows.Close()

	contacts := []domain.Contact{}
	for rows.Next() {
		var c domain.Contact
		if err := rows.Scan(
			&c.ContactID,
			&c.ClientID,
			&c.Name,
			&c.Email,
			&c.Phone,
			&c.Role,
			&c.IsBillingRecipient,
			&c.CreatedAt,
			&c.CreatedBy,
			&c.LastUpdatedAt,
			&c.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan contact row", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating contact rows", err)
	}
	return contacts, nil
}

// DeleteContact removes a contact row.
func (r *PgxClientRepository) DeleteContact(ctx context.Context, contactID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM contacts WHERE contact_id = $1;`, contactID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete contact "+contactID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
