// Package bootstrap assembles the identity core from configuration.
//
// Everything is wired explicitly: New builds each subsystem in
// dependency order and hands back a Core whose fields are the live
// collaborators. There is no container and no package-level state;
// embedding applications pass the Core (or individual fields) to
// whatever transport they host.
//
//	var cfg bootstrap.Config
//	if err := config.Load("idkit", &cfg); err != nil { ... }
//	core, err := bootstrap.New(cfg)
//	if err != nil { ... }
//	defer core.Close()
//
//	actx, err := core.Auth.GetCurrentUser(ctx, bearer)
package bootstrap
