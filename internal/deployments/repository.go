package deployments

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
	prefix = "deployment:"

	prefixByID      = prefix + "id:"
	prefixByService = prefix + "service:"
)

// Repository stores deployment records in badger. Deployments are
// append-only history: there is no delete.
type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Create creates a new deployment.
func (r *Repository) Create(_ context.Context, deployment *DeploymentDraft) (*Deployment, error) {
	model := newDeploymentModel(deployment)

	err := r.db.Update(func(txn *badger.Txn) error {
		return r.write(txn, model)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create deployment: %w", err)
	}

	return newDeployment(model), nil
}

// GetByID retrieves a deployment by its ID.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Deployment, error) {
	var deployment *deploymentModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.getByID(txn, id)
		if err == nil {
			deployment = found
		}

		return err
	})

	return newDeployment(deployment), err
}

// GetLatestByService retrieves the most recent deployment of a service
// matching the predicate.
func (r *Repository) GetLatestByService(
	_ context.Context,
	serviceID uuid.UUID,
	predicate func(*Deployment) bool,
) (*Deployment, error) {
	var latest *deploymentModel

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchSize = 2

		it := txn.NewIterator(opts)
		defer it.Close()

		servicePrefix := r.getServicePrefix(serviceID)
		for it.Seek(append(servicePrefix, badgerfx.SeekEnd)); it.ValidForPrefix(servicePrefix) && latest == nil; it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var deploymentID uuid.UUID
				if err := json.Unmarshal(val, &deploymentID); err != nil {
					return fmt.Errorf("failed to unmarshal deployment ID: %w", err)
				}

				deployment, err := r.getByID(txn, deploymentID)
				if err != nil {
					return err
				}

				if predicate != nil && !predicate(newDeployment(deployment)) {
					return nil
				}

				latest = deployment

				return nil
			}); err != nil {
				return fmt.Errorf("failed to unmarshal deployment: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	if latest == nil {
		return nil, fmt.Errorf("%w for service: %s", ErrNotFound, serviceID.String())
	}

	return newDeployment(latest), nil
}

// Update updates an existing deployment. The updater runs inside the
// write transaction so preconditions are re-checked against the current
// record: racing writers resolve deterministically.
func (r *Repository) Update(_ context.Context, id uuid.UUID, updater func(*Deployment) error) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		old, err := r.getByID(txn, id)
		if err != nil {
			return fmt.Errorf("failed to get deployment before update: %w", err)
		}

		deployment := newDeployment(old)

		if updErr := updater(deployment); updErr != nil {
			return updErr
		}

		if deployment.ServiceID != old.ServiceID {
			return fmt.Errorf(
				"cannot change deployment ServiceID (old=%s new=%s)",
				old.ServiceID, deployment.ServiceID,
			)
		}

		model := newDeploymentUpdateModel(old, &deployment.DeploymentDraft)

		return r.write(txn, model)
	})
	if err != nil {
		return fmt.Errorf("failed to update deployment: %w", err)
	}

	return nil
}

// ListByService retrieves the deployments of a service, newest first,
// bounded by limit (0 means no bound).
func (r *Repository) ListByService(_ context.Context, serviceID uuid.UUID, limit int) ([]Deployment, error) {
	var deployments []Deployment

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchSize = 10

		it := txn.NewIterator(opts)
		defer it.Close()

		servicePrefix := r.getServicePrefix(serviceID)
		for it.Seek(append(servicePrefix, badgerfx.SeekEnd)); it.ValidForPrefix(servicePrefix); it.Next() {
			if limit > 0 && len(deployments) >= limit {
				break
			}

			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var deploymentID uuid.UUID
				if err := json.Unmarshal(val, &deploymentID); err != nil {
					return fmt.Errorf("failed to unmarshal deployment ID: %w", err)
				}

				deployment, err := r.getByID(txn, deploymentID)
				if err != nil {
					return err
				}

				deployments = append(deployments, *newDeployment(deployment))

				return nil
			}); err != nil {
				return fmt.Errorf("failed to unmarshal deployment: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return deployments, fmt.Errorf("failed to list deployments: %w", err)
	}

	return deployments, nil
}

func (r *Repository) write(txn *badger.Txn, deployment *deploymentModel) error {
	data, err := json.Marshal(deployment)
	if err != nil {
		return fmt.Errorf("failed to marshal deployment: %w", err)
	}

	key := r.getKey(deployment.ID)
	if setErr := txn.Set(key, data); setErr != nil {
		return fmt.Errorf("failed to store deployment: %w", setErr)
	}

	if idxErr := r.createIndexes(txn, deployment); idxErr != nil {
		return fmt.Errorf("failed to create deployment indexes: %w", idxErr)
	}

	return nil
}

func (r *Repository) getByID(txn *badger.Txn, id uuid.UUID) (*deploymentModel, error) {
	key := r.getKey(id)
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}

	var deployment deploymentModel
	if valErr := item.Value(func(val []byte) error { return json.Unmarshal(val, &deployment) }); valErr != nil {
		return nil, fmt.Errorf("failed to unmarshal deployment: %w", valErr)
	}

	return &deployment, nil
}

// getKey generates the key for storing a deployment.
func (r *Repository) getKey(id uuid.UUID) []byte {
	return []byte(prefixByID + id.String())
}

// getServicePrefix generates the prefix for service-specific deployments.
func (r *Repository) getServicePrefix(serviceID uuid.UUID) []byte {
	return []byte(prefixByService + serviceID.String() + ":")
}

// createIndexes creates indexes for a deployment.
func (r *Repository) createIndexes(txn *badger.Txn, deployment *deploymentModel) error {
	// Service ID index `deployment:service:<service_id>:<unix_nano>`
	serviceKey := []byte(
		prefixByService + deployment.ServiceID.String() + ":" + strconv.FormatInt(deployment.CreatedAt.UnixNano(), 10),
	)
	serviceData, err := json.Marshal(deployment.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal deployment ID: %w", err)
	}
	if setErr := txn.Set(serviceKey, serviceData); setErr != nil {
		return fmt.Errorf("failed to set service index: %w", setErr)
	}

	return nil
}
