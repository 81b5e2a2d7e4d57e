// Package permission provides a casbin-backed authority.DataSource. Role and
// permission policies live in a relational table managed by the casbin gorm
// adapter, so they survive restarts and can be edited by external tooling.
package permission

import (
	"context"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"

	"github.com/orris-inc/tokengate/internal/authority"
	"github.com/orris-inc/tokengate/internal/shared/logger"
)

var _ authority.DataSource = (*DataSource)(nil)

// rbacModel is the standard casbin RBAC model: p rows grant a subject an
// object/action pair, g rows link users to roles.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// DisableFunc reports the ban level for an account/service pair when the
// caller stores disable state outside the engine's own records. A nil
// function means no external disable source.
type DisableFunc func(ctx context.Context, loginID, service string) (authority.Disabled, error)

// DataSource answers role, permission and disable lookups from a casbin
// enforcer persisted through gorm.
type DataSource struct {
	enforcer   *casbin.Enforcer
	mu         sync.RWMutex
	isDisabled DisableFunc
	logger     logger.Interface
}

// NewDataSource builds the enforcer on top of db and loads existing policies.
func NewDataSource(db *gorm.DB, log logger.Interface) (*DataSource, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin adapter: %w", err)
	}

	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse casbin model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	if err := enforcer.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}

	return &DataSource{
		enforcer: enforcer,
		logger:   log,
	}, nil
}

// SetDisableFunc installs an external disable source consulted by IsDisabled.
func (d *DataSource) SetDisableFunc(fn DisableFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.isDisabled = fn
}

// GetRoleList returns the roles directly assigned to loginID.
func (d *DataSource) GetRoleList(ctx context.Context, loginID, loginType string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	roles, err := d.enforcer.GetRolesForUser(subject(loginType, loginID))
	if err != nil {
		return nil, fmt.Errorf("failed to get roles: %w", err)
	}
	return roles, nil
}

// GetPermissionList returns every "object:action" permission loginID holds,
// including permissions inherited through roles.
func (d *DataSource) GetPermissionList(ctx context.Context, loginID, loginType string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	policies, err := d.enforcer.GetImplicitPermissionsForUser(subject(loginType, loginID))
	if err != nil {
		return nil, fmt.Errorf("failed to get permissions: %w", err)
	}

	perms := make([]string, 0, len(policies))
	for _, p := range policies {
		// p = [sub, obj, act]
		if len(p) < 3 {
			continue
		}
		perms = append(perms, p[1]+":"+p[2])
	}
	return perms, nil
}

// IsDisabled delegates to the installed DisableFunc; without one, accounts
// are never disabled from this source.
func (d *DataSource) IsDisabled(ctx context.Context, loginID, service string) (authority.Disabled, error) {
	d.mu.RLock()
	fn := d.isDisabled
	d.mu.RUnlock()

	if fn == nil {
		return authority.Disabled{}, nil
	}
	return fn(ctx, loginID, service)
}

// AddRoleForUser links loginID to role and persists the change.
func (d *DataSource) AddRoleForUser(loginID, loginType, role string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.enforcer.AddRoleForUser(subject(loginType, loginID), role); err != nil {
		return fmt.Errorf("failed to add role: %w", err)
	}
	return nil
}

// RemoveRoleForUser unlinks loginID from role.
func (d *DataSource) RemoveRoleForUser(loginID, loginType, role string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.enforcer.DeleteRoleForUser(subject(loginType, loginID), role); err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	return nil
}

// AddPermissionForRole grants role the object/action pair.
func (d *DataSource) AddPermissionForRole(role, object, action string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.enforcer.AddPolicy(role, object, action); err != nil {
		return fmt.Errorf("failed to add policy: %w", err)
	}
	return nil
}

// RemovePermissionForRole revokes the object/action pair from role.
func (d *DataSource) RemovePermissionForRole(role, object, action string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.enforcer.RemovePolicy(role, object, action); err != nil {
		return fmt.Errorf("failed to remove policy: %w", err)
	}
	return nil
}

// Reload re-reads policies from storage, picking up out-of-band edits.
func (d *DataSource) Reload() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.enforcer.LoadPolicy(); err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}
	return nil
}

// subject scopes casbin subjects by login type so "user" and "admin"
// namespaces with the same account id never share grants.
func subject(loginType, loginID string) string {
	return loginType + ":" + loginID
}
