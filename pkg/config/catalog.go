package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/openfroyo/scaffolder/pkg/engine"
)

// ValidationError describes a problem in a catalog file.
type ValidationError struct {
	File    string
	Line    int
	Column  int
	Message string
}

func (e ValidationError) String() string {
	if e.File == "" {
		return e.Message
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}

// CatalogError lists every problem found in a catalog file.
type CatalogError struct {
	Errors []ValidationError
}

func (e *CatalogError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.String()
	}
	return "invalid catalog: " + strings.Join(msgs, "; ")
}

// LoadCatalog reads a CUE catalog file. An empty path yields the built-in
// catalog.
func LoadCatalog(path string) (engine.Catalog, error) {
	if path == "" {
		return engine.DefaultCatalog(), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return engine.Catalog{}, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(content, path)
}

// ParseCatalog validates content against the catalog schema and builds the
// catalog. Package names must be unique.
func ParseCatalog(content []byte, filename string) (engine.Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(catalogSchema).LookupPath(cue.ParsePath("#Catalog"))
	if err := schema.Err(); err != nil {
		return engine.Catalog{}, fmt.Errorf("failed to compile catalog schema: %w", err)
	}

	val := ctx.CompileString(string(content), cue.Filename(filename))
	if err := val.Err(); err != nil {
		return engine.Catalog{}, &CatalogError{Errors: convertCUEErrors(err)}
	}

	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return engine.Catalog{}, &CatalogError{Errors: convertCUEErrors(err)}
	}

	var doc struct {
		Packages []engine.CatalogEntry `json:"packages"`
	}
	if err := unified.Decode(&doc); err != nil {
		return engine.Catalog{}, fmt.Errorf("failed to decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(doc.Packages))
	var dups []ValidationError
	for _, e := range doc.Packages {
		if seen[e.Package] {
			dups = append(dups, ValidationError{File: filename, Message: fmt.Sprintf("duplicate package %q", e.Package)})
		}
		seen[e.Package] = true
	}
	if len(dups) > 0 {
		return engine.Catalog{}, &CatalogError{Errors: dups}
	}

	return engine.NewCatalog(doc.Packages), nil
}

func convertCUEErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	for _, e := range errors.Errors(err) {
		ve := ValidationError{Message: errors.Details(e, nil)}
		if pos := errors.Positions(e); len(pos) > 0 {
			ve.File = pos[0].Filename()
			ve.Line = pos[0].Line()
			ve.Column = pos[0].Column()
		}
		validationErrors = append(validationErrors, ve)
	}

	return validationErrors
}

// CatalogWatcher serves the current catalog and reloads it when the file
// changes. A reload that fails validation keeps the previous catalog.
type CatalogWatcher struct {
	path    string
	logger  zerolog.Logger
	current atomic.Pointer[engine.Catalog]
	delay   time.Duration
}

// NewCatalogWatcher loads path and returns a watcher holding it. An empty
// path serves the built-in catalog and never reloads.
func NewCatalogWatcher(path string, logger zerolog.Logger) (*CatalogWatcher, error) {
	catalog, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}

	w := &CatalogWatcher{
		path:   path,
		logger: logger.With().Str("component", "catalog-watcher").Logger(),
		delay:  250 * time.Millisecond,
	}
	w.current.Store(&catalog)
	return w, nil
}

// Catalog returns the current snapshot.
func (w *CatalogWatcher) Catalog() engine.Catalog {
	return *w.current.Load()
}

// Run watches the catalog file until ctx is done. The parent directory is
// watched so that editors replacing the file are noticed.
func (w *CatalogWatcher) Run(ctx context.Context) error {
	if w.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(w.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.delay, w.reload)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *CatalogWatcher) reload() {
	catalog, err := LoadCatalog(w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("path", w.path).Msg("Catalog reload failed; keeping previous catalog")
		return
	}
	w.current.Store(&catalog)
	w.logger.Info().Str("path", w.path).Int("packages", catalog.Len()).Msg("Catalog reloaded")
}
