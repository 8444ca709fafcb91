package policy

import (
	"path"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	wspath "github.com/Cyclone1070/workspacerpc/internal/tool/service/path"
)

// Engine evaluates a Policy against one workspace root.
// It is immutable after construction and safe for concurrent use.
type Engine struct {
	policy   Policy
	resolver *wspath.Resolver

	commands map[string]struct{}
	env      map[string]struct{}
	confirm  map[string]struct{}
}

// NewEngine builds an engine for pol scoped to the resolver's root.
func NewEngine(pol *Policy, resolver *wspath.Resolver) *Engine {
	if pol == nil {
		pol = Default()
	}
	return &Engine{
		policy:   *pol,
		resolver: resolver,
		commands: toSet(pol.AllowedCommands),
		env:      toSet(pol.EnvAllowlist),
		confirm:  toSet(pol.RequireConfirmation),
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// Policy returns a copy of the rules in effect.
func (e *Engine) Policy() Policy {
	p := e.policy
	p.AllowedPaths = slices.Clone(p.AllowedPaths)
	p.DeniedPaths = slices.Clone(p.DeniedPaths)
	p.AllowedCommands = slices.Clone(p.AllowedCommands)
	p.EnvAllowlist = slices.Clone(p.EnvAllowlist)
	p.RequireConfirmation = slices.Clone(p.RequireConfirmation)
	return p
}

// Root returns the canonical workspace root.
func (e *Engine) Root() string {
	return e.resolver.Root()
}

// MaxReadSize is the largest file fs.read will return.
func (e *Engine) MaxReadSize() int64 { return int64(e.policy.MaxReadSize) }

// MaxWriteSize is the largest content any write may carry.
func (e *Engine) MaxWriteSize() int64 { return int64(e.policy.MaxWriteSize) }

// NormalizePath resolves input (absolute or relative) against the workspace root,
// resolving `.`, `..` and symlinks, and returns the forward-slash path relative to the root.
// A path that escapes the root fails with a traversal error before any allow/deny check.
func (e *Engine) NormalizePath(input string) (string, error) {
	return e.resolver.Rel(input)
}

// IsPathAllowed evaluates a normalized relative path against the deny globs first
// and then the allow globs. Paths that are not normalized in-root paths are denied.
func (e *Engine) IsPathAllowed(rel string) bool {
	if rel == "" || path.IsAbs(rel) || strings.Contains(rel, `\`) {
		return false
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return false
	}

	for _, pattern := range e.policy.DeniedPaths {
		if match(pattern, clean) {
			return false
		}
		// "dir/**" also covers dir itself.
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok && match(dir, clean) {
			return false
		}
	}

	// The root stays reachable so listing and search can descend to allowed children.
	if clean == "." || e.allowsEverything() {
		return true
	}
	for _, pattern := range e.policy.AllowedPaths {
		if match(pattern, clean) {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok && match(dir, clean) {
			return true
		}
	}
	return false
}

func (e *Engine) allowsEverything() bool {
	allow := e.policy.AllowedPaths
	if len(allow) == 0 {
		return true
	}
	return len(allow) == 1 && (allow[0] == UniversalPattern || allow[0] == "**")
}

func match(pattern, rel string) bool {
	ok, err := doublestar.Match(pattern, rel)
	return err == nil && ok
}

// IsCommandAllowed reports whether name is on the allowlist. Matching is by exact
// program name only; an empty allowlist disables execution entirely.
func (e *Engine) IsCommandAllowed(name string) bool {
	if len(e.commands) == 0 || name == "" {
		return false
	}
	_, ok := e.commands[name]
	return ok
}

// IsEnvAllowed reports whether a host environment variable may reach a child process.
func (e *Engine) IsEnvAllowed(name string) bool {
	if len(e.env) == 0 {
		return true
	}
	_, ok := e.env[name]
	return ok
}

// EnvFiltering reports whether an environment allowlist is configured.
func (e *Engine) EnvFiltering() bool {
	return len(e.env) > 0
}

// RequiresConfirmation reports whether operation is gated behind confirmed=true.
func (e *Engine) RequiresConfirmation(operation string) bool {
	_, ok := e.confirm[operation]
	return ok
}

// Resolve normalizes input and checks it against the path rules, returning both the
// absolute and the relative form. This is the entry point every operation group uses.
func (e *Engine) Resolve(input string) (abs, rel string, err error) {
	abs, err = e.resolver.Abs(input)
	if err != nil {
		return "", "", err
	}
	rel = e.resolver.RelOf(abs)
	if !e.IsPathAllowed(rel) {
		return "", "", &PathDeniedError{Path: rel}
	}
	return abs, rel, nil
}

// ResolveEntry is Resolve for operations that act on a directory entry itself
// (delete, move): a trailing symlink is not followed.
func (e *Engine) ResolveEntry(input string) (abs, rel string, err error) {
	abs, err = e.resolver.AbsNoFollow(input)
	if err != nil {
		return "", "", err
	}
	rel = e.resolver.RelOf(abs)
	if !e.IsPathAllowed(rel) {
		return "", "", &PathDeniedError{Path: rel}
	}
	return abs, rel, nil
}

// RelOf converts an absolute in-root path to its relative form.
func (e *Engine) RelOf(abs string) string {
	return e.resolver.RelOf(abs)
}

// CheckCommand returns a policy error unless name may be executed.
func (e *Engine) CheckCommand(name string) error {
	if !e.IsCommandAllowed(name) {
		return &CommandDeniedError{Command: name, Disabled: len(e.commands) == 0}
	}
	return nil
}

// CheckConfirmation returns an error when operation needs confirmation and confirmed is false.
func (e *Engine) CheckConfirmation(operation string, confirmed bool) error {
	if !confirmed && e.RequiresConfirmation(operation) {
		return &ConfirmationRequiredError{Operation: operation}
	}
	return nil
}
