package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const (
	prefix = "service:"

	prefixByID      = prefix + "id:"
	prefixByProject = prefix + "project:"
)

// Repository stores service records in badger.
type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Create creates a new service.
func (r *Repository) Create(_ context.Context, draft *ServiceDraft) (*Service, error) {
	model := newServiceModel(draft)

	err := r.db.Update(func(txn *badger.Txn) error {
		return r.write(txn, model)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	return newService(model), nil
}

// GetByID retrieves a service by its ID.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Service, error) {
	var service *serviceModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.getByID(txn, id)
		if err == nil {
			service = found
		}

		return err
	})

	return newService(service), err
}

// Update updates an existing service with re-validation inside the
// transaction.
func (r *Repository) Update(_ context.Context, id uuid.UUID, updater func(*Service) error) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		old, err := r.getByID(txn, id)
		if err != nil {
			return fmt.Errorf("failed to get service before update: %w", err)
		}

		service := newService(old)

		if updErr := updater(service); updErr != nil {
			return updErr
		}

		if service.ProjectID != old.ProjectID {
			return fmt.Errorf("cannot change service ProjectID (old=%s new=%s)", old.ProjectID, service.ProjectID)
		}

		model := newServiceUpdateModel(old, &service.ServiceDraft)

		return r.write(txn, model)
	})
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}

	return nil
}

// List retrieves all services.
func (r *Repository) List(_ context.Context) ([]Service, error) {
	var services []Service

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10

		it := txn.NewIterator(opts)
		defer it.Close()

		idPrefix := []byte(prefixByID)
		for it.Seek(idPrefix); it.ValidForPrefix(idPrefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var model serviceModel
				if err := json.Unmarshal(val, &model); err != nil {
					return fmt.Errorf("failed to unmarshal service: %w", err)
				}

				services = append(services, *newService(&model))

				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return services, fmt.Errorf("failed to list services: %w", err)
	}

	return services, nil
}

// ListByProject retrieves all services belonging to a project.
func (r *Repository) ListByProject(_ context.Context, projectID uuid.UUID) ([]Service, error) {
	var services []Service

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10

		it := txn.NewIterator(opts)
		defer it.Close()

		projectPrefix := r.getProjectPrefix(projectID)
		for it.Seek(projectPrefix); it.ValidForPrefix(projectPrefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var serviceID uuid.UUID
				if err := json.Unmarshal(val, &serviceID); err != nil {
					return fmt.Errorf("failed to unmarshal service ID: %w", err)
				}

				service, err := r.getByID(txn, serviceID)
				if err != nil {
					return err
				}

				services = append(services, *newService(service))

				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return services, fmt.Errorf("failed to list services: %w", err)
	}

	return services, nil
}

func (r *Repository) write(txn *badger.Txn, service *serviceModel) error {
	data, err := json.Marshal(service)
	if err != nil {
		return fmt.Errorf("failed to marshal service: %w", err)
	}

	key := r.getKey(service.ID)
	if setErr := txn.Set(key, data); setErr != nil {
		return fmt.Errorf("failed to store service: %w", setErr)
	}

	if idxErr := r.createIndexes(txn, service); idxErr != nil {
		return fmt.Errorf("failed to create service indexes: %w", idxErr)
	}

	return nil
}

func (r *Repository) getByID(txn *badger.Txn, id uuid.UUID) (*serviceModel, error) {
	key := r.getKey(id)
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	var service serviceModel
	if valErr := item.Value(func(val []byte) error { return json.Unmarshal(val, &service) }); valErr != nil {
		return nil, fmt.Errorf("failed to unmarshal service: %w", valErr)
	}

	return &service, nil
}

// getKey generates the key for storing a service.
func (r *Repository) getKey(id uuid.UUID) []byte {
	return []byte(prefixByID + id.String())
}

// getProjectPrefix generates the prefix for project-specific services.
func (r *Repository) getProjectPrefix(projectID uuid.UUID) []byte {
	return []byte(prefixByProject + projectID.String() + ":")
}

// createIndexes creates indexes for a service.
func (r *Repository) createIndexes(txn *badger.Txn, service *serviceModel) error {
	// Project ID index `service:project:<project_id>:<service_id>`
	projectKey := []byte(prefixByProject + service.ProjectID.String() + ":" + service.ID.String())
	projectData, err := json.Marshal(service.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal service ID: %w", err)
	}
	if setErr := txn.Set(projectKey, projectData); setErr != nil {
		return fmt.Errorf("failed to set project index: %w", setErr)
	}

	return nil
}
