package repack

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	ps "github.com/mitchellh/go-ps"

	"github.com/lnotspotl/drake/internal/command"
	"github.com/lnotspotl/drake/internal/config"
	"github.com/lnotspotl/drake/internal/converter"
	"github.com/lnotspotl/drake/internal/debian"
	"github.com/lnotspotl/drake/internal/logger"
	"github.com/lnotspotl/drake/internal/osrelease"
	"github.com/lnotspotl/drake/internal/resource"
	"github.com/lnotspotl/drake/internal/sourcearchive"
	"github.com/lnotspotl/drake/internal/version"
)

// Options contains inputs for the repack-deb entry point.
type Options struct {
	// ArchivePath is the release tarball to repackage.
	ArchivePath string
	// OutputDir receives the package; it is created when missing.
	OutputDir string
	// Version overrides the version derived from VERSION.TXT. It is used verbatim.
	Version string
	// Config holds the packaging parameters; nil means config.Default().
	Config *config.Config
	// Environ is the base subprocess environment; nil means os.Environ().
	Environ []string
}

// Result describes a produced package.
type Result struct {
	// Path is the package location inside the output directory.
	Path string
	// Version is the effective upstream version.
	Version string
	// SignaturePath is set when the package was signed.
	SignaturePath string
}

const (
	executableName = "repack-deb"
	tempDirPattern = "drake-repack-"
	alienDirName   = "alien"
	dirPermissions = 0o755
	fileMode       = 0o644
)

// errArchiveNotSet is returned when no archive path was provided.
var errArchiveNotSet = errors.New("source archive is not set")

// templateNames are the resources overwritten in the generated debian directory.
var templateNames = []string{
	resource.Compat,
	resource.ControlTemplate,
	resource.Copyright,
	resource.ChangelogTemplate,
}

// repackager holds the collaborators of one run.
// It is unexported; callers should use Run.
type repackager struct {
	cfg       *config.Config
	archive   string
	outputDir string
	version   string
	environ   []string

	locator   *resource.Locator
	conv      converter.Converter
	builder   converter.Builder
	processes func() ([]ps.Process, error)
}

// Run executes the repackaging workflow.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	ctx = logger.WithName(ctx, executableName)
	logger.DebugKV(ctx, "Starting", "build", version.Get().String(executableName))

	r, err := newRepackager(opts)
	if err != nil {
		return nil, fmt.Errorf("initialize repackager: %w", err)
	}

	warnConcurrentRuns(ctx, r.processes, os.Getpid())

	result, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Package created", "path", result.Path, "version", result.Version)

	return result, nil
}

// newRepackager validates opts and wires the default collaborators.
func newRepackager(opts *Options) (*repackager, error) {
	if opts == nil || opts.ArchivePath == "" {
		return nil, errArchiveNotSet
	}

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	archive, err := filepath.Abs(opts.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("resolve archive path: %w", err)
	}

	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output directory: %w", err)
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	runner := command.NewExecRunner()

	return &repackager{
		cfg:       cfg,
		archive:   archive,
		outputDir: outputDir,
		version:   opts.Version,
		environ:   environ,
		locator:   resource.NewLocator(resource.DefaultRoots(cfg.ResourceDir)...),
		conv: &converter.Alien{
			Runner:   runner,
			Fakeroot: cfg.Tools.Fakeroot,
			Path:     cfg.Tools.Alien,
		},
		builder: &converter.DebianRules{
			Runner:   runner,
			Fakeroot: cfg.Tools.Fakeroot,
		},
		processes: ps.Processes,
	}, nil
}

// Run produces the package and returns where it was placed.
func (r *repackager) Run(ctx context.Context) (*Result, error) {
	templates, err := r.readTemplates()
	if err != nil {
		return nil, err
	}

	codename, err := osrelease.Codename(r.cfg.Codename, r.cfg.OSReleasePath)
	if err != nil {
		return nil, fmt.Errorf("detect distribution codename: %w", err)
	}

	logger.InfoKV(ctx, "Reading release archive", "archive", r.archive, "codename", codename)

	contents, err := sourcearchive.Read(r.archive, r.cfg.Product, codename)
	if err != nil {
		return nil, err
	}

	ver := debian.EffectiveVersion(r.version, r.cfg.VersionPrefix, contents.Version.Timestamp)
	if err = debian.ValidateVersion(ver, r.cfg.Revision); err != nil {
		return nil, err
	}

	files, err := r.renderMetadata(templates, contents, ver)
	if err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return nil, fmt.Errorf("create temporary directory: %w", err)
	}

	defer func() {
		if rmErr := os.RemoveAll(tmp); rmErr != nil {
			logger.WarnKV(ctx, "Unable to remove temporary directory", "path", tmp, "error", rmErr)
		}
	}()

	return r.build(ctx, tmp, ver, files)
}

// build runs the conversion and packaging steps inside tmp.
func (r *repackager) build(ctx context.Context, tmp, ver string, files map[string][]byte) (*Result, error) {
	workDir := filepath.Join(tmp, alienDirName)
	if err := os.Mkdir(workDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create conversion directory: %w", err)
	}

	env := r.subprocessEnv()

	logger.InfoKV(ctx, "Converting archive", "version", ver)

	tree, err := r.conv.Convert(ctx, converter.Request{
		Archive: r.archive,
		Version: ver,
		WorkDir: workDir,
		Env:     env,
	})
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Discovered package tree", "path", tree)

	if err = relocatePayload(tree, r.cfg.Product); err != nil {
		return nil, err
	}

	if err = writeDebianFiles(tree, files); err != nil {
		return nil, err
	}

	if err = r.builder.Build(ctx, tree, env); err != nil {
		return nil, err
	}

	name := debian.PackageFilename(r.cfg.PackageName, ver, r.cfg.Revision, r.cfg.Architecture)
	built := filepath.Join(workDir, name)

	if r.cfg.VerifyOutput {
		if err = r.verify(ctx, built, ver); err != nil {
			return nil, err
		}
	}

	if err = os.MkdirAll(r.outputDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	result := &Result{
		Path:    filepath.Join(r.outputDir, name),
		Version: ver,
	}

	if err = moveFile(built, result.Path); err != nil {
		return nil, fmt.Errorf("move package: %w", err)
	}

	if r.cfg.SigningKey != "" {
		result.SignaturePath, err = debian.SignFile(result.Path, r.cfg.SigningKey)
		if err != nil {
			return nil, err
		}

		logger.InfoKV(ctx, "Package signed", "signature", result.SignaturePath)
	}

	return result, nil
}

// readTemplates locates and reads the four debian/* resources.
func (r *repackager) readTemplates() (map[string]string, error) {
	paths, err := r.locator.LocateAll(templateNames...)
	if err != nil {
		return nil, err
	}

	templates := make(map[string]string, len(paths))

	for name, path := range paths {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		templates[name] = string(data)
	}

	return templates, nil
}

// renderMetadata returns the debian/* file contents keyed by their name in the tree.
func (r *repackager) renderMetadata(templates map[string]string, contents *sourcearchive.Contents, ver string) (map[string][]byte, error) {
	control, err := debian.RenderControl(templates[resource.ControlTemplate], debian.ControlData{
		Package:      r.cfg.PackageName,
		Architecture: r.cfg.Architecture,
		Depends:      debian.FormatDepends(contents.Packages),
	})
	if err != nil {
		return nil, err
	}

	changelog, err := debian.RenderChangelog(templates[resource.ChangelogTemplate], debian.ChangelogData{
		Package:  r.cfg.PackageName,
		Version:  ver,
		Revision: r.cfg.Revision,
		GitSHA:   contents.Version.GitSHA,
		Date:     debian.FormatChangelogDate(contents.Version.ModTime),
	})
	if err != nil {
		return nil, err
	}

	return map[string][]byte{
		"compat":    []byte(templates[resource.Compat]),
		"control":   []byte(control),
		"copyright": []byte(templates[resource.Copyright]),
		"changelog": []byte(changelog),
	}, nil
}

// subprocessEnv returns the environment for alien and debian/rules.
func (r *repackager) subprocessEnv() []string {
	overrides := make(map[string]string, len(r.cfg.Env)+1)
	for k, v := range r.cfg.Env {
		overrides[k] = v
	}

	overrides["EMAIL"] = r.cfg.Maintainer

	return command.MergeEnv(r.environ, overrides)
}

// verify checks that the built package declares what was requested.
func (r *repackager) verify(ctx context.Context, path, ver string) error {
	ins, err := debian.InspectFile(path)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", filepath.Base(path), err)
	}

	err = ins.Verify(debian.Expectation{
		Package:      r.cfg.PackageName,
		Version:      ver + "-" + r.cfg.Revision,
		Architecture: r.cfg.Architecture,
	})
	if err != nil {
		return fmt.Errorf("verify %s: %w", filepath.Base(path), err)
	}

	logger.DebugKV(ctx, "Package verified", "members", ins.Members)

	return nil
}
