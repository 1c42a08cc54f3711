package wpdeploy

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	coreDir    = "wordpress"
	contentDir = "wp-content"
	trunk      = "trunk"
)

var (
	pluginsDir = filepath.Join(contentDir, "plugins")
	themesDir  = filepath.Join(contentDir, "themes")
	uploadsDir = filepath.Join(contentDir, "uploads")
)

// External is a single svn:externals definition
type External struct {
	Dir string
	URL string
}

// String renders the definition in the svn 1.5+ "URL dir" form
func (e External) String() string {
	return e.URL + " " + e.Dir
}

func formatExternals(externals []External) string {
	lines := make([]string, len(externals))
	for i, e := range externals {
		lines[i] = e.String()
	}
	return strings.Join(lines, "\n") + "\n"
}

// ref maps a pinned version to a repository path; no version means trunk
func ref(version string) string {
	if version == "" || version == trunk {
		return trunk
	}
	return "tags/" + version
}

// CoreExternal pins WordPress core into the wordpress directory
func CoreExternal(wp WordPress) External {
	return External{
		Dir: coreDir,
		URL: strings.TrimSuffix(wp.Repository, "/") + "/" + ref(wp.Version),
	}
}

// PluginExternals pins each plugin into a directory named after it, in name
// order.
func PluginExternals(wp WordPress, plugins map[string]string) []External {
	names := make([]string, 0, len(plugins))
	for name := range plugins {
		names = append(names, name)
	}
	sort.Strings(names)

	repository := strings.TrimSuffix(wp.PluginRepository, "/")
	externals := make([]External, len(names))
	for i, name := range names {
		externals[i] = External{Dir: name, URL: repository + "/" + name + "/" + ref(plugins[name])}
	}
	return externals
}

// Subversion drives the svn client inside one working copy
type Subversion struct {
	bin    string
	dir    string
	runner Runner
}

func (s *Subversion) run(ctx context.Context, args ...string) error {
	log.Debugf("svn %s", strings.Join(args, " "))
	return s.runner.Run(ctx, &Command{Name: s.bin, Args: args, Dir: s.dir})
}

// Info fails unless dir is a working copy
func (s *Subversion) Info(ctx context.Context) error {
	return s.run(ctx, "info", "--non-interactive", ".")
}

// Mkdir creates directories and schedules them for addition
func (s *Subversion) Mkdir(ctx context.Context, paths ...string) error {
	return s.run(ctx, append([]string{"mkdir", "--parents"}, paths...)...)
}

// Propset sets a versioned property on target
func (s *Subversion) Propset(ctx context.Context, name, value, target string) error {
	return s.run(ctx, "propset", name, value, target)
}

// Update brings the working copy, externals included, up to date
func (s *Subversion) Update(ctx context.Context) error {
	return s.run(ctx, "update", "--non-interactive")
}

func (d *Deployer) subversion(dir string) (*Subversion, error) {
	bin, err := find(d.fs, "svn")
	if err != nil {
		return nil, err
	}
	return &Subversion{bin: bin, dir: dir, runner: d.runner}, nil
}

// InitOptions override pinned versions when bootstrapping a site
type InitOptions struct {
	WordPressVersion string
	Plugins          []string
}

// Init scaffolds a new site in the working copy at dir: content and dump
// directories, ignore rules, and WordPress core and plugins as externals.
func (d *Deployer) Init(ctx context.Context, dir string, opts InitOptions) error {
	svn, err := d.subversion(dir)
	if err != nil {
		return err
	}
	if err := svn.Info(ctx); err != nil {
		return errors.Wrapf(err, "%s is not a subversion working copy", dir)
	}

	var missing []string
	for _, p := range []string{themesDir, pluginsDir, uploadsDir, d.config.DumpDir} {
		if _, err := d.fs.Stat(filepath.Join(dir, p)); err != nil {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		log.Infof("creating %s", strings.Join(missing, ", "))
		if err := svn.Mkdir(ctx, missing...); err != nil {
			return errors.Wrap(err, "creating directories")
		}
	}

	ignores := []struct{ target, pattern string }{
		{".", "wp-config.php"},
		{uploadsDir, "*"},
		{d.config.DumpDir, "*.sql\n*.tmp"},
	}
	for _, ignore := range ignores {
		if err := svn.Propset(ctx, "svn:ignore", ignore.pattern, ignore.target); err != nil {
			return errors.Wrapf(err, "ignoring files in %s", ignore.target)
		}
	}

	wp := d.config.WordPress
	if opts.WordPressVersion != "" {
		wp.Version = opts.WordPressVersion
	}
	return d.setExternals(ctx, svn, wp, opts.Plugins)
}

// UpdateExternals re-pins core and plugins from the configuration (plus
// name[@version] overrides) and updates the working copy at dir.
func (d *Deployer) UpdateExternals(ctx context.Context, dir string, plugins []string) error {
	svn, err := d.subversion(dir)
	if err != nil {
		return err
	}
	return d.setExternals(ctx, svn, d.config.WordPress, plugins)
}

func (d *Deployer) setExternals(ctx context.Context, svn *Subversion, wp WordPress, plugins []string) error {
	core := CoreExternal(wp)
	log.Infof("pinning WordPress %s", core.URL)
	if err := svn.Propset(ctx, "svn:externals", formatExternals([]External{core}), "."); err != nil {
		return errors.Wrap(err, "pinning WordPress core")
	}

	externals := PluginExternals(wp, d.config.PluginVersions(plugins))
	if len(externals) > 0 {
		for _, e := range externals {
			log.Infof("pinning plugin %s at %s", e.Dir, e.URL)
		}
		if err := svn.Propset(ctx, "svn:externals", formatExternals(externals), pluginsDir); err != nil {
			return errors.Wrap(err, "pinning plugins")
		}
	}

	return errors.Wrap(svn.Update(ctx), "updating working copy")
}
