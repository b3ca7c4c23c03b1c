// Package policy defines the authorization boundary consulted by the
// orchestrators. The actual role/permission store lives in an external
// identity service; the control plane only asks questions, it never
// implements RBAC itself.
package policy

import (
	"context"

	"github.com/google/uuid"
)

// Permissions consulted by the control plane.
const (
	PermissionDeploymentsCancel   = "deployments:cancel"
	PermissionDeploymentsStop     = "deployments:stop"
	PermissionDeploymentsRollback = "deployments:rollback"
	PermissionPromotionsCreate    = "promotions:create"
	PermissionPromotionsReview    = "promotions:review"
	PermissionAutoscalingManage   = "autoscaling:manage"
	PermissionServicesScale       = "services:scale"
)

// Engine answers permission checks for an actor within a project.
type Engine interface {
	HasPermission(ctx context.Context, actor uuid.UUID, projectID uuid.UUID, permission string) bool
}

// AllowAll grants every permission. The assembled binary runs behind an
// authenticating edge that already scopes requests to accessible projects,
// so the default in-process policy is permissive.
type AllowAll struct{}

func NewAllowAll() *AllowAll {
	return &AllowAll{}
}

func (AllowAll) HasPermission(context.Context, uuid.UUID, uuid.UUID, string) bool {
	return true
}

var _ Engine = (*AllowAll)(nil)
