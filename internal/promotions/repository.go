package promotions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/syntra/syntra/pkg/badgerfx"
)

const (
	prefix = "promotion:"

	prefixByID      = prefix + "id:"
	prefixByProject = prefix + "project:"
)

// Repository stores promotion records in badger.
type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Create creates a new promotion.
func (r *Repository) Create(_ context.Context, draft *PromotionDraft) (*Promotion, error) {
	model := newPromotionModel(draft)

	err := r.db.Update(func(txn *badger.Txn) error {
		return r.write(txn, model)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}

	return newPromotion(model), nil
}

// GetByID retrieves a promotion by its ID.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Promotion, error) {
	var promotion *promotionModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.getByID(txn, id)
		if err == nil {
			promotion = found
		}

		return err
	})

	return newPromotion(promotion), err
}

// Update updates an existing promotion. The updater runs inside the write
// transaction so the one-way status progression is enforced against the
// current record.
func (r *Repository) Update(_ context.Context, id uuid.UUID, updater func(*Promotion) error) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		old, err := r.getByID(txn, id)
		if err != nil {
			return fmt.Errorf("failed to get promotion before update: %w", err)
		}

		promotion := newPromotion(old)

		if updErr := updater(promotion); updErr != nil {
			return updErr
		}

		model := newPromotionUpdateModel(old, &promotion.PromotionDraft)

		return r.write(txn, model)
	})
	if err != nil {
		return fmt.Errorf("failed to update promotion: %w", err)
	}

	return nil
}

// ListByProject retrieves the promotions of a project, newest first.
func (r *Repository) ListByProject(_ context.Context, projectID uuid.UUID) ([]Promotion, error) {
	var promotions []Promotion

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchSize = 10

		it := txn.NewIterator(opts)
		defer it.Close()

		projectPrefix := r.getProjectPrefix(projectID)
		for it.Seek(append(projectPrefix, badgerfx.SeekEnd)); it.ValidForPrefix(projectPrefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var promotionID uuid.UUID
				if err := json.Unmarshal(val, &promotionID); err != nil {
					return fmt.Errorf("failed to unmarshal promotion ID: %w", err)
				}

				promotion, err := r.getByID(txn, promotionID)
				if err != nil {
					return err
				}

				promotions = append(promotions, *newPromotion(promotion))

				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return promotions, fmt.Errorf("failed to list promotions: %w", err)
	}

	return promotions, nil
}

func (r *Repository) write(txn *badger.Txn, promotion *promotionModel) error {
	data, err := json.Marshal(promotion)
	if err != nil {
		return fmt.Errorf("failed to marshal promotion: %w", err)
	}

	key := r.getKey(promotion.ID)
	if setErr := txn.Set(key, data); setErr != nil {
		return fmt.Errorf("failed to store promotion: %w", setErr)
	}

	if idxErr := r.createIndexes(txn, promotion); idxErr != nil {
		return fmt.Errorf("failed to create promotion indexes: %w", idxErr)
	}

	return nil
}

func (r *Repository) getByID(txn *badger.Txn, id uuid.UUID) (*promotionModel, error) {
	key := r.getKey(id)
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}

	var promotion promotionModel
	if valErr := item.Value(func(val []byte) error { return json.Unmarshal(val, &promotion) }); valErr != nil {
		return nil, fmt.Errorf("failed to unmarshal promotion: %w", valErr)
	}

	return &promotion, nil
}

// getKey generates the key for storing a promotion.
func (r *Repository) getKey(id uuid.UUID) []byte {
	return []byte(prefixByID + id.String())
}

// getProjectPrefix generates the prefix for project-specific promotions.
func (r *Repository) getProjectPrefix(projectID uuid.UUID) []byte {
	return []byte(prefixByProject + projectID.String() + ":")
}

// createIndexes creates indexes for a promotion.
func (r *Repository) createIndexes(txn *badger.Txn, promotion *promotionModel) error {
	// Project ID index `promotion:project:<project_id>:<unix_nano>`
	projectKey := []byte(
		prefixByProject + promotion.ProjectID.String() + ":" + strconv.FormatInt(promotion.CreatedAt.UnixNano(), 10),
	)
	projectData, err := json.Marshal(promotion.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal promotion ID: %w", err)
	}
	if setErr := txn.Set(projectKey, projectData); setErr != nil {
		return fmt.Errorf("failed to set project index: %w", setErr)
	}

	return nil
}
