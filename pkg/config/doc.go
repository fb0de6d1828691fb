// Package config loads scaffolder settings and the package catalog.
//
// # Settings
//
// Settings come from a YAML file (scaffolder.yaml by default) laid over
// DefaultConfig. SCAFFOLDER_PROJECTS_ROOT and LOG_LEVEL override the file.
// The result is checked with validator tags and the telemetry rules.
//
//	projects_root: /srv/projects
//	catalog_path: /etc/scaffolder/catalog.cue
//	policy_paths: [/etc/scaffolder/policies]
//	watch: true
//	defaults:
//	  timezone: Europe/Paris
//	store:
//	  enabled: true
//	  path: /var/lib/scaffolder/history.db
//	server:
//	  listen: 127.0.0.1:8000
//
// # Catalog
//
// The package catalog is a CUE file validated against the #Catalog schema:
//
//	packages: [
//		{package: "djangorestframework", module: "rest_framework"},
//		{package: "gunicorn"},
//	]
//
// Every problem is reported with its file position. CatalogWatcher keeps the
// latest valid catalog in memory and reloads it when the file changes.
package config
