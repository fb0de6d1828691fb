package engine

import (
	"maps"
	"slices"
)

// CatalogEntry is one installable package.
type CatalogEntry struct {
	// Package is the name handed to the package installer.
	Package string `json:"package"`

	// Module is the importable name registered in the application's list
	// block, or empty when the package has nothing to register.
	Module string `json:"module,omitempty"`
}

// Catalog is the fixed allow-list of installable packages. The zero value is
// an empty catalog. A Catalog is never mutated after construction and is safe
// for concurrent use.
type Catalog struct {
	entries map[string]string
}

// NewCatalog builds a catalog from entries. Later duplicates win.
func NewCatalog(entries []CatalogEntry) Catalog {
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		m[e.Package] = e.Module
	}
	return Catalog{entries: m}
}

// DefaultCatalog returns the built-in package table.
func DefaultCatalog() Catalog {
	return NewCatalog([]CatalogEntry{
		{Package: "djangorestframework", Module: "rest_framework"},
		{Package: "django-debug-toolbar", Module: "debug_toolbar"},
		{Package: "django-crispy-forms", Module: "crispy_forms"},
		{Package: "django-allauth", Module: "allauth"},
		{Package: "django-cors-headers", Module: "corsheaders"},
		{Package: "django-environ"},
		{Package: "gunicorn"},
		{Package: "pytest"},
		{Package: "pytest-django"},
		{Package: "celery"},
		{Package: "channels", Module: "channels"},
		{Package: "whitenoise", Module: "whitenoise.runserver_nostatic"},
		{Package: "pillow"},
		{Package: "django-extensions", Module: "django_extensions"},
		{Package: "django-filter", Module: "django_filters"},
	})
}

// Lookup reports whether pkg is in the catalog and returns its module.
func (c Catalog) Lookup(pkg string) (module string, ok bool) {
	module, ok = c.entries[pkg]
	return module, ok
}

// Module returns the module for pkg, or empty when there is none.
func (c Catalog) Module(pkg string) string {
	return c.entries[pkg]
}

// Packages returns every package name in sorted order.
func (c Catalog) Packages() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Entries returns every entry sorted by package name.
func (c Catalog) Entries() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(c.entries))
	for _, pkg := range c.Packages() {
		out = append(out, CatalogEntry{Package: pkg, Module: c.entries[pkg]})
	}
	return out
}

// Len returns the number of packages.
func (c Catalog) Len() int {
	return len(c.entries)
}
