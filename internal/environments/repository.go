package environments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	prefix = "environment:"

	prefixByID      = prefix + "id:"
	prefixByProject = prefix + "project:"
)

// Repository stores environment records in badger.
type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Create creates a new environment.
func (r *Repository) Create(_ context.Context, draft *EnvironmentDraft) (*Environment, error) {
	model := newEnvironmentModel(draft)

	err := r.db.Update(func(txn *badger.Txn) error {
		return r.write(txn, model)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create environment: %w", err)
	}

	return newEnvironment(model), nil
}

// GetByID retrieves an environment by its ID.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Environment, error) {
	var environment *environmentModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.getByID(txn, id)
		if err == nil {
			environment = found
		}

		return err
	})

	return newEnvironment(environment), err
}

// Update updates an existing environment with re-validation inside the
// transaction.
func (r *Repository) Update(_ context.Context, id uuid.UUID, updater func(*Environment) error) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		old, err := r.getByID(txn, id)
		if err != nil {
			return fmt.Errorf("failed to get environment before update: %w", err)
		}

		environment := newEnvironment(old)

		if updErr := updater(environment); updErr != nil {
			return updErr
		}

		if environment.ProjectID != old.ProjectID {
			return fmt.Errorf(
				"cannot change environment ProjectID (old=%s new=%s)",
				old.ProjectID, environment.ProjectID,
			)
		}

		model := newEnvironmentUpdateModel(old, &environment.EnvironmentDraft)

		return r.write(txn, model)
	})
	if err != nil {
		return fmt.Errorf("failed to update environment: %w", err)
	}

	return nil
}

// ListByProject retrieves all environments of a project.
func (r *Repository) ListByProject(_ context.Context, projectID uuid.UUID) ([]Environment, error) {
	var environments []Environment

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10

		it := txn.NewIterator(opts)
		defer it.Close()

		projectPrefix := r.getProjectPrefix(projectID)
		for it.Seek(projectPrefix); it.ValidForPrefix(projectPrefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var environmentID uuid.UUID
				if err := json.Unmarshal(val, &environmentID); err != nil {
					return fmt.Errorf("failed to unmarshal environment ID: %w", err)
				}

				environment, err := r.getByID(txn, environmentID)
				if err != nil {
					return err
				}

				environments = append(environments, *newEnvironment(environment))

				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return environments, fmt.Errorf("failed to list environments: %w", err)
	}

	return environments, nil
}

func (r *Repository) write(txn *badger.Txn, environment *environmentModel) error {
	data, err := json.Marshal(environment)
	if err != nil {
		return fmt.Errorf("failed to marshal environment: %w", err)
	}

	key := r.getKey(environment.ID)
	if setErr := txn.Set(key, data); setErr != nil {
		return fmt.Errorf("failed to store environment: %w", setErr)
	}

	if idxErr := r.createIndexes(txn, environment); idxErr != nil {
		return fmt.Errorf("failed to create environment indexes: %w", idxErr)
	}

	return nil
}

func (r *Repository) getByID(txn *badger.Txn, id uuid.UUID) (*environmentModel, error) {
	key := r.getKey(id)
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get environment: %w", err)
	}

	var environment environmentModel
	if valErr := item.Value(func(val []byte) error { return json.Unmarshal(val, &environment) }); valErr != nil {
		return nil, fmt.Errorf("failed to unmarshal environment: %w", valErr)
	}

	return &environment, nil
}

// getKey generates the key for storing an environment.
func (r *Repository) getKey(id uuid.UUID) []byte {
	return []byte(prefixByID + id.String())
}

// getProjectPrefix generates the prefix for project-specific environments.
func (r *Repository) getProjectPrefix(projectID uuid.UUID) []byte {
	return []byte(prefixByProject + projectID.String() + ":")
}

// createIndexes creates indexes for an environment.
func (r *Repository) createIndexes(txn *badger.Txn, environment *environmentModel) error {
	// Project ID index `environment:project:<project_id>:<environment_id>`
	projectKey := []byte(prefixByProject + environment.ProjectID.String() + ":" + environment.ID.String())
	projectData, err := json.Marshal(environment.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal environment ID: %w", err)
	}
	if setErr := txn.Set(projectKey, projectData); setErr != nil {
		return fmt.Errorf("failed to set project index: %w", setErr)
	}

	return nil
}
