package authz

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/logger"
	"github.com/cataloghq/idkit/store"
)

// maxTraversalDepth bounds role and group chain walks. Hierarchies this
// deep do not occur in practice; the bound only matters for cyclic data.
const maxTraversalDepth = 32

// Resolver computes effective permissions from the role and group graph.
type Resolver struct {
	graph  store.Graph
	tracer trace.Tracer
	log    *logger.Logger
}

// NewResolver creates a resolver over the given graph.
func NewResolver(graph store.Graph, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Get("authz")
	}
	return &Resolver{
		graph:  graph,
		tracer: otel.Tracer("idkit/authz"),
		log:    log,
	}
}

// LoadUserPermissions resolves the user's effective permissions: the
// union of permissions granted by directly assigned roles and by roles
// assigned to any group the user transitively belongs to, with each
// role's ancestor chain included. A user with no assignments gets an
// empty set, not an error.
func (r *Resolver) LoadUserPermissions(ctx context.Context, email string) (PermissionSet, error) {
	ctx, span := r.tracer.Start(ctx, "authz.LoadUserPermissions",
		trace.WithAttributes(attribute.String("user.email", email)))
	defer span.End()

	roleSlugs, err := r.graph.UserRoles(ctx, email)
	if err != nil {
		return nil, apperrors.StoreError("load user roles").WithCause(err)
	}

	groups, err := r.userGroups(ctx, email)
	if err != nil {
		return nil, err
	}
	for _, slug := range groups {
		g, err := r.graph.GetGroup(ctx, slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, apperrors.StoreError("load group " + slug).WithCause(err)
		}
		roleSlugs = append(roleSlugs, g.Roles...)
	}

	perms := make(PermissionSet)
	seenRoles := make(map[string]bool)
	for _, slug := range roleSlugs {
		if err := r.collectRolePermissions(ctx, slug, seenRoles, perms); err != nil {
			return nil, err
		}
	}
	return perms, nil
}

// userGroups returns the slugs of every group the user belongs to,
// following parent chains breadth-first.
func (r *Resolver) userGroups(ctx context.Context, email string) ([]string, error) {
	direct, err := r.graph.UserGroups(ctx, email)
	if err != nil {
		return nil, apperrors.StoreError("load user groups").WithCause(err)
	}

	visited := make(map[string]bool)
	queue := append([]string(nil), direct...)
	var all []string
	for depth := 0; len(queue) > 0 && depth < maxTraversalDepth; depth++ {
		var next []string
		for _, slug := range queue {
			if visited[slug] {
				continue
			}
			visited[slug] = true
			all = append(all, slug)

			g, err := r.graph.GetGroup(ctx, slug)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				return nil, apperrors.StoreError("load group " + slug).WithCause(err)
			}
			if g.Parent != "" && !visited[g.Parent] {
				next = append(next, g.Parent)
			}
		}
		queue = next
	}
	return all, nil
}

// collectRolePermissions unions the permissions of a role and its
// ancestor chain into perms.
func (r *Resolver) collectRolePermissions(ctx context.Context, slug string, visited map[string]bool, perms PermissionSet) error {
	for depth := 0; slug != "" && depth < maxTraversalDepth; depth++ {
		if visited[slug] {
			return nil
		}
		visited[slug] = true

		role, err := r.graph.GetRole(ctx, slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				r.log.Warn("role edge points at a missing role", logger.Fields("role", slug))
				return nil
			}
			return apperrors.StoreError("load role " + slug).WithCause(err)
		}
		for _, p := range role.Permissions {
			perms[p] = struct{}{}
		}
		slug = role.Parent
	}
	return nil
}

// RequirePermission returns nil when the principal holds the required
// permission and a FORBIDDEN error naming it otherwise.
func (r *Resolver) RequirePermission(actx *AuthContext, permission string) error {
	if actx.HasPermission(permission) {
		return nil
	}
	return apperrors.Forbidden("permission " + permission + " required").
		WithDetail(logger.FieldPermission, permission)
}

// RequireResourceAccess authorizes an action on one resource instance.
// The check order is admin, then type-wide "resource_type:action"
// permission, then per-resource grants held by the user or any of their
// groups.
func (r *Resolver) RequireResourceAccess(ctx context.Context, actx *AuthContext, resourceType, resourceSlug, action string) error {
	if actx.IsAdmin {
		return nil
	}
	if actx.Permissions.Has(resourceType + ":" + action) {
		return nil
	}

	label := resourceLabel(resourceType)

	grants, err := r.graph.UserResourceGrants(ctx, actx.Email, label, resourceSlug)
	if err != nil {
		return apperrors.StoreError("load resource grants").WithCause(err)
	}
	if grantsAllow(grants, action) {
		return nil
	}

	groups, err := r.userGroups(ctx, actx.Email)
	if err != nil {
		return err
	}
	for _, slug := range groups {
		grants, err := r.graph.GroupResourceGrants(ctx, slug, label, resourceSlug)
		if err != nil {
			return apperrors.StoreError("load group resource grants").WithCause(err)
		}
		if grantsAllow(grants, action) {
			return nil
		}
	}

	return apperrors.Forbidden("access to "+resourceType+" "+resourceSlug+" denied").
		WithDetail(logger.FieldResource, resourceType+"/"+resourceSlug).
		WithDetail(logger.FieldAction, action)
}

func grantsAllow(grants []*store.ResourceGrant, action string) bool {
	for _, g := range grants {
		for _, a := range g.Actions {
			if a == action || a == "*" {
				return true
			}
		}
	}
	return false
}

// resourceLabel converts a snake_case resource type into the PascalCase
// node label used by the store ("service_component" -> "ServiceComponent").
func resourceLabel(resourceType string) string {
	parts := strings.Split(resourceType, "_")
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
