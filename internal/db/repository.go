package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gamedeck/socialgraph/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AccountRepository provides account-related database operations
type AccountRepository struct {
	*Repository
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(repo *Repository) *AccountRepository {
	return &AccountRepository{Repository: repo}
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// GetByUsername retrieves an account by username
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("username = ?", username).Take(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Create creates a new account
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// ListIDs returns up to limit account IDs greater than after, in ID order
func (r *AccountRepository) ListIDs(ctx context.Context, after string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id > ?", after).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// EdgeRepository provides read-only edge queries outside a transaction
type EdgeRepository struct {
	*Repository
}

// NewEdgeRepository creates a new edge repository
func NewEdgeRepository(repo *Repository) *EdgeRepository {
	return &EdgeRepository{Repository: repo}
}

// Get retrieves one edge
func (r *EdgeRepository) Get(ctx context.Context, kind models.EdgeKind, owner, other string) (*models.Edge, error) {
	var edge models.Edge
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND other_id = ? AND kind = ?", owner, other, kind).
		Take(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge, nil
}

// List returns one page of owner's edges of a kind, newest first. The page
// continues after cursor, which is empty for the first page.
func (r *EdgeRepository) List(ctx context.Context, kind models.EdgeKind, owner string, pageSize int, cursor string) (*EdgePage, error) {
	after, err := DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Where("owner_id = ? AND kind = ?", owner, kind)
	if !after.IsZero() {
		query = query.Where("(seq < ? OR (seq = ? AND other_id < ?))", after.Seq, after.Seq, after.OtherID)
	}

	var edges []models.Edge
	if err := query.Order("seq DESC").Order("other_id DESC").Limit(pageSize + 1).Find(&edges).Error; err != nil {
		return nil, err
	}

	page := &EdgePage{Edges: edges}
	if len(edges) > pageSize {
		page.Edges = edges[:pageSize]
		last := page.Edges[pageSize-1]
		page.NextCursor = EncodeCursor(last.Seq, last.OtherID)
	}
	return page, nil
}

// Between returns all edges owned by owner that point at any of others
func (r *EdgeRepository) Between(ctx context.Context, owner string, others []string) ([]models.Edge, error) {
	if len(others) == 0 {
		return nil, nil
	}
	var edges []models.Edge
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND other_id IN ?", owner, others).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return edges, nil
}

// NotificationRepository provides notification outbox operations
type NotificationRepository struct {
	*Repository
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(repo *Repository) *NotificationRepository {
	return &NotificationRepository{Repository: repo}
}

// Create stores a notification
func (r *NotificationRepository) Create(ctx context.Context, notif *models.Notification) error {
	return r.db.WithContext(ctx).Create(notif).Error
}

// ListByRecipient returns the newest notifications for an account
func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	var notifs []models.Notification
	err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipient).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifs).Error
	if err != nil {
		return nil, err
	}
	return notifs, nil
}
