// Package authz resolves what a principal may do.
//
// Effective permissions are the union of permissions granted by the
// user's directly assigned roles and by roles assigned to any group the
// user belongs to, directly or through nested groups. Each role also
// contributes everything its ancestor roles grant. All traversals are
// breadth-first with visited sets and a depth bound, so cyclic data in
// the store degrades to a complete-but-finite walk instead of hanging.
//
// Permissions are "resource_type:action" strings with wildcard support
// ("project:*", "*:read"). Resource-scoped grants narrow access to a
// single resource instance and are checked only after type-wide
// permissions fail.
package authz
