package authority

import "context"

// Disabled is the answer of an external ban-authority lookup. TTL bounds how
// long the engine may cache the answer, including a "not disabled" one.
type Disabled struct {
	Level int
	TTL   int64
}

// DataSource supplies the decisions the engine does not own: role and
// permission lists, and the authoritative ban state. Implementations live
// outside the core (database, RPC, casbin policy, ...).
type DataSource interface {
	GetRoleList(ctx context.Context, loginID, loginType string) ([]string, error)
	GetPermissionList(ctx context.Context, loginID, loginType string) ([]string, error)
	IsDisabled(ctx context.Context, loginID, service string) (Disabled, error)
}

// NopDataSource grants nothing and bans nobody. It is the default when no
// data source is injected.
type NopDataSource struct{}

func (NopDataSource) GetRoleList(ctx context.Context, loginID, loginType string) ([]string, error) {
	return nil, nil
}

func (NopDataSource) GetPermissionList(ctx context.Context, loginID, loginType string) ([]string, error) {
	return nil, nil
}

func (NopDataSource) IsDisabled(ctx context.Context, loginID, service string) (Disabled, error) {
	return Disabled{}, nil
}
