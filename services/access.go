package services

import (
	"fmt"

	"naagrik-api/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Principal is the verified identity behind a request. A nil *Principal is
// the anonymous caller.
type Principal struct {
	UserID primitive.ObjectID
	Email  string
	Role   models.Role
}

// Action names an operation guarded by the policy.
type Action string

const (
	ActionListIssues   Action = "issue:list"
	ActionReadIssue    Action = "issue:read"
	ActionUpvote       Action = "issue:upvote"
	ActionCreateIssue  Action = "issue:create"
	ActionComment      Action = "issue:comment"
	ActionChangeStatus Action = "issue:status"
	ActionDeleteIssue  Action = "issue:delete"
	ActionViewSelf     Action = "user:me"
	ActionUpload       Action = "media:upload"
)

const policyModel = `
[request_definition]
r = sub, act

[policy_definition]
p = sub, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.act == p.act
`

// PolicyOptions tunes which actions are open to anonymous callers.
type PolicyOptions struct {
	AuthenticatedUpvotes bool
}

// Policy decides whether a principal may perform an action. Role grants live
// in an in-memory Casbin RBAC model where ADMIN inherits every USER grant.
type Policy struct {
	enforcer *casbin.Enforcer
	public   map[Action]bool
}

func NewPolicy(opts PolicyOptions) (*Policy, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	grants := [][2]string{
		{string(models.RoleUser), string(ActionCreateIssue)},
		{string(models.RoleUser), string(ActionComment)},
		{string(models.RoleUser), string(ActionViewSelf)},
		{string(models.RoleUser), string(ActionUpload)},
		{string(models.RoleAdmin), string(ActionChangeStatus)},
		{string(models.RoleAdmin), string(ActionDeleteIssue)},
	}
	public := map[Action]bool{
		ActionListIssues: true,
		ActionReadIssue:  true,
		ActionUpvote:     true,
	}
	if opts.AuthenticatedUpvotes {
		delete(public, ActionUpvote)
		grants = append(grants, [2]string{string(models.RoleUser), string(ActionUpvote)})
	}

	for _, g := range grants {
		if _, err := enforcer.AddPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("add policy %s %s: %w", g[0], g[1], err)
		}
	}
	if _, err := enforcer.AddGroupingPolicy(string(models.RoleAdmin), string(models.RoleUser)); err != nil {
		return nil, fmt.Errorf("add role inheritance: %w", err)
	}

	return &Policy{enforcer: enforcer, public: public}, nil
}

// Authorize returns nil when p may perform act, Unauthenticated when act
// needs a principal and there is none, and Forbidden otherwise.
func (pol *Policy) Authorize(p *Principal, act Action) error {
	if pol.public[act] {
		return nil
	}
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	if pol.adminOnly(act) {
		if err := RequireAdmin(p); err != nil {
			return err
		}
	}

	role, ok := models.ParseRole(string(p.Role))
	if !ok {
		return Forbidden("Unknown role")
	}
	allowed, err := pol.enforcer.Enforce(string(role), string(act))
	if err != nil {
		return UnexpectedError("Authorization check failed", err)
	}
	if !allowed {
		return Forbidden("Permission denied")
	}
	return nil
}

// adminOnly reports whether act is granted to ADMIN but not to USER.
func (pol *Policy) adminOnly(act Action) bool {
	admin, err := pol.enforcer.Enforce(string(models.RoleAdmin), string(act))
	if err != nil || !admin {
		return false
	}
	user, err := pol.enforcer.Enforce(string(models.RoleUser), string(act))
	return err == nil && !user
}

// RequireAuthenticated fails with Unauthenticated for the anonymous caller.
func RequireAuthenticated(p *Principal) error {
	if p == nil {
		return Unauthenticated("Authentication required")
	}
	return nil
}

// RequireAdmin fails with Unauthenticated for the anonymous caller and with
// Forbidden for any role other than ADMIN.
func RequireAdmin(p *Principal) error {
	if err := RequireAuthenticated(p); err != nil {
		return err
	}
	switch p.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleUser:
		return Forbidden("Admin access required")
	default:
		return Forbidden("Unknown role")
	}
}
