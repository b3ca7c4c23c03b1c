package autoscaling

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
	prefix = "autoscaling:"

	prefixByID      = prefix + "id:"
	prefixByService = prefix + "service:"
)

type Repository struct {
	db *badger.DB
}

func NewRepository(db *badger.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Create creates a new rule.
func (r *Repository) Create(_ context.Context, draft *RuleDraft) (*Rule, error) {
	model := newRuleModel(draft)

	err := r.db.Update(func(txn *badger.Txn) error {
		return r.write(txn, model)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	return newRule(model), nil
}

// GetByID retrieves a rule by its ID.
func (r *Repository) GetByID(_ context.Context, id uuid.UUID) (*Rule, error) {
	var rule *ruleModel

	err := r.db.View(func(txn *badger.Txn) error {
		found, err := r.getByID(txn, id)
		if err == nil {
			rule = found
		}

		return err
	})

	return newRule(rule), err
}

// Update updates an existing rule. The updater runs inside the write
// transaction so concurrent evaluator stamps and operator edits do not
// lose updates.
func (r *Repository) Update(_ context.Context, id uuid.UUID, updater func(*Rule) error) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		old, err := r.getByID(txn, id)
		if err != nil {
			return fmt.Errorf("failed to get rule before update: %w", err)
		}

		rule := newRule(old)

		if updErr := updater(rule); updErr != nil {
			return updErr
		}

		if rule.ServiceID != old.ServiceID {
			return fmt.Errorf("cannot change rule ServiceID (old=%s new=%s)", old.ServiceID, rule.ServiceID)
		}

		model := newRuleUpdateModel(old, &rule.RuleDraft)

		return r.write(txn, model)
	})
	if err != nil {
		return fmt.Errorf("failed to update rule: %w", err)
	}

	return nil
}

// Delete removes a rule and its indexes.
func (r *Repository) Delete(_ context.Context, id uuid.UUID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		rule, err := r.getByID(txn, id)
		if err != nil {
			return err
		}

		if delErr := txn.Delete(r.getKey(id)); delErr != nil {
			return fmt.Errorf("failed to delete rule: %w", delErr)
		}
		if delErr := txn.Delete(r.getServiceKey(rule)); delErr != nil {
			return fmt.Errorf("failed to delete service index: %w", delErr)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	return nil
}

// ListByService retrieves the rules of a service, newest first.
func (r *Repository) ListByService(_ context.Context, serviceID uuid.UUID) ([]Rule, error) {
	var rules []Rule

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchSize = 10

		it := txn.NewIterator(opts)
		defer it.Close()

		servicePrefix := r.getServicePrefix(serviceID)
		for it.Seek(append(servicePrefix, badgerfx.SeekEnd)); it.ValidForPrefix(servicePrefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var ruleID uuid.UUID
				if err := json.Unmarshal(val, &ruleID); err != nil {
					return fmt.Errorf("failed to unmarshal rule ID: %w", err)
				}

				rule, err := r.getByID(txn, ruleID)
				if err != nil {
					return err
				}

				rules = append(rules, *newRule(rule))

				return nil
			}); err != nil {
				return fmt.Errorf("failed to unmarshal rule: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return rules, fmt.Errorf("failed to list rules: %w", err)
	}

	return rules, nil
}

// ListEnabled retrieves every enabled rule across all services.
func (r *Repository) ListEnabled(_ context.Context) ([]Rule, error) {
	var rules []Rule

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchSize = 10

		it := txn.NewIterator(opts)
		defer it.Close()

		idPrefix := []byte(prefixByID)
		for it.Seek(idPrefix); it.ValidForPrefix(idPrefix); it.Next() {
			item := it.Item()

			if err := item.Value(func(val []byte) error {
				var rule ruleModel
				if err := json.Unmarshal(val, &rule); err != nil {
					return fmt.Errorf("failed to unmarshal rule: %w", err)
				}

				if rule.IsEnabled {
					rules = append(rules, *newRule(&rule))
				}

				return nil
			}); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return rules, fmt.Errorf("failed to list enabled rules: %w", err)
	}

	return rules, nil
}

func (r *Repository) write(txn *badger.Txn, rule *ruleModel) error {
	data, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule: %w", err)
	}

	key := r.getKey(rule.ID)
	if setErr := txn.Set(key, data); setErr != nil {
		return fmt.Errorf("failed to store rule: %w", setErr)
	}

	if idxErr := r.createIndexes(txn, rule); idxErr != nil {
		return fmt.Errorf("failed to create rule indexes: %w", idxErr)
	}

	return nil
}

func (r *Repository) getByID(txn *badger.Txn, id uuid.UUID) (*ruleModel, error) {
	key := r.getKey(id)
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}

	var rule ruleModel
	if valErr := item.Value(func(val []byte) error { return json.Unmarshal(val, &rule) }); valErr != nil {
		return nil, fmt.Errorf("failed to unmarshal rule: %w", valErr)
	}

	return &rule, nil
}

// getKey generates the key for storing a rule.
func (r *Repository) getKey(id uuid.UUID) []byte {
	return []byte(prefixByID + id.String())
}

// getServicePrefix generates the prefix for service-specific rules.
func (r *Repository) getServicePrefix(serviceID uuid.UUID) []byte {
	return []byte(prefixByService + serviceID.String() + ":")
}

func (r *Repository) getServiceKey(rule *ruleModel) []byte {
	return []byte(
		prefixByService + rule.ServiceID.String() + ":" + strconv.FormatInt(rule.CreatedAt.UnixNano(), 10),
	)
}

// createIndexes creates indexes for a rule.
func (r *Repository) createIndexes(txn *badger.Txn, rule *ruleModel) error {
	// Service ID index `autoscaling:service:<service_id>:<unix_nano>`
	serviceData, err := json.Marshal(rule.ID)
	if err != nil {
		return fmt.Errorf("failed to marshal rule ID: %w", err)
	}
	if setErr := txn.Set(r.getServiceKey(rule), serviceData); setErr != nil {
		return fmt.Errorf("failed to set service index: %w", setErr)
	}

	return nil
}
