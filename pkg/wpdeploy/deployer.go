package wpdeploy

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/aybabtme/iocontrol"
	"github.com/cheggaaa/pb"
	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/threecommaio/wpdeploy/pkg/rewrite"
)

// Options tune how dumps are handled
type Options struct {
	// Keep retains the rewritten dump after a successful load
	Keep bool
	// Progress shows a progress bar while rewriting
	Progress bool
}

// Deployer runs dumps, loads and working copy tasks for one project
type Deployer struct {
	config *Config
	fs     afero.Fs
	runner Runner
	opts   Options
}

// NewDeployer returns a Deployer bound to a loaded configuration
func NewDeployer(config *Config, fs afero.Fs, runner Runner, opts Options) *Deployer {
	return &Deployer{config: config, fs: fs, runner: runner, opts: opts}
}

// Config returns the configuration the deployer was built with
func (d *Deployer) Config() *Config {
	return d.config
}

// DumpPath is where the dump of an environment is stored
func (d *Deployer) DumpPath(name string) string {
	return filepath.Join(d.config.DumpDir, name+".sql")
}

// RewrittenDumpPath is where a dump rewritten for an environment is stored
func (d *Deployer) RewrittenDumpPath(name string) string {
	return filepath.Join(d.config.DumpDir, "~"+name+".sql")
}

// Dump exports the database of an environment (the default one when name is
// empty) and returns the dump path.
func (d *Deployer) Dump(ctx context.Context, name string) (string, error) {
	env, err := d.config.Environment(name)
	if err != nil {
		return "", err
	}
	return d.dump(ctx, env)
}

func (d *Deployer) dump(ctx context.Context, env Environment) (string, error) {
	bin, err := find(d.fs, "mysqldump")
	if err != nil {
		return "", err
	}
	if err := d.fs.MkdirAll(d.config.DumpDir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", d.config.DumpDir)
	}

	path := d.DumpPath(env.Name)
	tmp := path + ".tmp"
	f, err := d.fs.Create(tmp)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", tmp)
	}

	log.Infof("dumping [%s] database %s to %s", env.Name, env.DBName, path)
	err = d.runner.Run(ctx, dumpCommand(bin, env, f))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		d.fs.Remove(tmp)
		return "", errors.Wrapf(err, "dumping %s", env.Name)
	}
	if err := d.fs.Rename(tmp, path); err != nil {
		return "", errors.Wrapf(err, "moving dump into %s", path)
	}

	if fi, err := d.fs.Stat(path); err == nil {
		log.Infof("dumped %s of [%s] data", humanize.Bytes(uint64(fi.Size())), env.Name)
	}

	d.runHook(ctx, "post_dump", d.config.Hooks.PostDump, path)
	return path, nil
}

// Rewrite rewrites the dump of src for dst and returns the rewritten path
func (d *Deployer) Rewrite(src, dst string) (string, error) {
	srcEnv, dstEnv, err := d.pair(src, dst)
	if err != nil {
		return "", err
	}
	return d.rewrite(srcEnv, dstEnv)
}

// Load loads the dump of src into dst, rewriting hostnames on the way. An
// empty dst means the default environment.
func (d *Deployer) Load(ctx context.Context, src, dst string, force bool) error {
	if src == "" {
		return ErrMissingSource
	}
	srcEnv, err := d.config.Environment(src)
	if err != nil {
		return err
	}
	dstEnv, err := d.config.Environment(dst)
	if err != nil {
		return err
	}
	if err := confirm(dstEnv, force); err != nil {
		return err
	}
	return d.load(ctx, srcEnv, dstEnv)
}

// Migrate dumps src and loads the result into dst
func (d *Deployer) Migrate(ctx context.Context, src, dst string, force bool) error {
	srcEnv, dstEnv, err := d.pair(src, dst)
	if err != nil {
		return err
	}
	if err := confirm(dstEnv, force); err != nil {
		return err
	}
	if _, err := d.dump(ctx, srcEnv); err != nil {
		return err
	}
	return d.load(ctx, srcEnv, dstEnv)
}

// Ping checks the database connection of an environment
func (d *Deployer) Ping(ctx context.Context, name string) error {
	env, err := d.config.Environment(name)
	if err != nil {
		return err
	}
	return Ping(ctx, env)
}

func (d *Deployer) pair(src, dst string) (Environment, Environment, error) {
	if src == "" {
		return Environment{}, Environment{}, ErrMissingSource
	}
	if dst == "" {
		return Environment{}, Environment{}, ErrMissingDestination
	}
	srcEnv, err := d.config.Environment(src)
	if err != nil {
		return Environment{}, Environment{}, err
	}
	dstEnv, err := d.config.Environment(dst)
	if err != nil {
		return Environment{}, Environment{}, err
	}
	return srcEnv, dstEnv, nil
}

func confirm(env Environment, force bool) error {
	if env.ForceRequired && !force {
		return errors.Wrapf(ErrConfirmationRequired, "environment %q is protected, re-run with --force to overwrite its database", env.Name)
	}
	return nil
}

func (d *Deployer) requireDump(env Environment) (string, error) {
	path := d.DumpPath(env.Name)
	if _, err := d.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrDumpNotFound, "no dump of %q at %s, run \"wpdeploy dump %s\" first", env.Name, path, env.Name)
		}
		return "", errors.Wrapf(err, "checking %s", path)
	}
	return path, nil
}

func (d *Deployer) load(ctx context.Context, src, dst Environment) error {
	bin, err := find(d.fs, "mysql")
	if err != nil {
		return err
	}

	var (
		path      string
		rewritten = src.Name != dst.Name
	)
	if rewritten {
		path, err = d.rewrite(src, dst)
	} else {
		path, err = d.requireDump(src)
	}
	if err != nil {
		return err
	}

	d.runHook(ctx, "pre_load", d.config.Hooks.PreLoad, path)

	in, err := d.fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", path)
	}
	defer in.Close()

	log.Infof("loading %s into [%s] database %s", path, dst.Name, dst.DBName)
	if err := d.runner.Run(ctx, loadCommand(bin, dst, in)); err != nil {
		return errors.Wrapf(err, "loading %s into %s (kept for inspection)", path, dst.Name)
	}
	log.Infof("loaded [%s] data into [%s]", src.Name, dst.Name)

	if rewritten && !d.opts.Keep {
		if err := d.fs.Remove(path); err != nil {
			log.Warnf("could not remove %s: %v", path, err)
		}
	}
	return nil
}

// rewrite writes the dump of src, with src hostnames replaced by the dst
// server name, next to the original. The output only appears once it has
// been written completely.
func (d *Deployer) rewrite(src, dst Environment) (string, error) {
	dumpPath, err := d.requireDump(src)
	if err != nil {
		return "", err
	}
	rewriter, err := rewrite.New(src.Hosts(), dst.ServerName)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidConfiguration, "rewriting %s for %s: %v", src.Name, dst.Name, err)
	}

	in, err := d.fs.Open(dumpPath)
	if err != nil {
		return "", errors.Wrapf(err, "opening %s", dumpPath)
	}
	defer in.Close()

	path := d.RewrittenDumpPath(dst.Name)
	tmp := path + ".tmp"
	out, err := d.fs.Create(tmp)
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", tmp)
	}

	measured := iocontrol.NewMeasuredReader(in)
	var reader io.Reader = measured
	if d.opts.Progress {
		if fi, err := in.Stat(); err == nil {
			bar := pb.New64(fi.Size())
			bar.SetUnits(pb.U_BYTES)
			bar.ShowSpeed = true
			bar.Output = os.Stderr
			bar.Start()
			defer bar.Finish()
			reader = bar.NewProxyReader(measured)
		}
	}

	log.Infof("rewriting %v -> %s in %s", src.Hosts(), dst.ServerName, dumpPath)
	start := time.Now()
	stats, err := rewriter.Copy(out, reader)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		d.fs.Remove(tmp)
		return "", errors.Wrapf(err, "rewriting %s", dumpPath)
	}
	if err := d.fs.Rename(tmp, path); err != nil {
		d.fs.Remove(tmp)
		return "", errors.Wrapf(err, "moving rewritten dump into %s", path)
	}

	log.WithFields(log.Fields{
		"lines":           stats.Lines,
		"substitutions":   stats.Substitutions,
		"length_prefixes": stats.LengthPrefixes,
		"elapsed":         time.Since(start).Round(time.Millisecond),
	}).Infof("rewrote %s to %s (%s/s)", humanize.Bytes(uint64(stats.Bytes)), path, humanize.Bytes(measured.BytesPerSec()))

	return path, nil
}
