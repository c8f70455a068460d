// Package deny is the authorization decision engine. Each resolver method
// answers one (entity, action) question with a nullable reason code: an
// empty string permits the action, anything else is the first guard that
// fired. Fill* methods evaluate the full action set of an entity and return
// the verdict map attached to serialized responses.
//
// Resolvers are pure with respect to persisted state: they read entity
// snapshots, the acting user and one immutable config snapshot, and never
// mutate anything. Controllers call the same methods for enforcement that
// serializers call for affordance hints.
package deny

import (
	"gorm.io/gorm"

	"github.com/eclipse-sealman/sealman-ems/pkg/config"
	"github.com/eclipse-sealman/sealman-ems/pkg/model"
	"github.com/eclipse-sealman/sealman-ems/pkg/security"
)

// Resolver evaluates deny verdicts for one request: one acting user, one
// config snapshot. Construct a fresh one per request; never reuse across
// requests since global flags may change between them.
type Resolver struct {
	db    *gorm.DB
	cfg   config.Snapshot
	user  *model.User
	roles *security.Roles
	scope *security.Scope
}

func NewResolver(db *gorm.DB, cfg config.Snapshot, user *model.User) *Resolver {
	roles := security.NewRoles(db, cfg)
	return &Resolver{
		db:    db,
		cfg:   cfg,
		user:  user,
		roles: roles,
		scope: security.NewScope(db, roles),
	}
}

// User returns the acting user, possibly nil.
func (r *Resolver) User() *model.User {
	return r.user
}

// HasRole exposes role resolution for collaborators layered on top of the
// resolver, such as the VPN lifecycle.
func (r *Resolver) HasRole(role security.Role) bool {
	return r.roles.Has(r.user, role)
}

// Scope exposes the access scope so handlers can shape list queries with
// the same visibility rules the resolvers enforce.
func (r *Resolver) Scope() *security.Scope {
	return r.scope
}

func (r *Resolver) isGranted(role security.Role) bool {
	return r.roles.Has(r.user, role)
}

func (r *Resolver) isAdminOrSmartems() bool {
	return r.isGranted(security.RoleAdmin) || r.isGranted(security.RoleSmartems)
}

func (r *Resolver) isAllDevicesGranted() bool {
	return r.scope.HasUnrestrictedAccess(r.user)
}

func (r *Resolver) isCurrentUser(u *model.User) bool {
	return r.user != nil && u != nil && r.user.ID == u.ID
}

// userIntersectsTags reports whether the acting user shares an access tag
// with the given set. False for anonymous actors and empty sets.
func (r *Resolver) userIntersectsTags(tags []model.AccessTag) bool {
	if r.user == nil {
		return false
	}
	return r.user.IntersectsAccessTags(tags)
}
