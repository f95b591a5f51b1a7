// Package script locates the compiled PascalScript bytecode of an
// installer.
package script

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/wippyai/innoexec/errors"
)

// Resolver produces installer script bytecode.
type Resolver interface {
	Resolve(ctx context.Context) ([]byte, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context) ([]byte, error)

func (f ResolverFunc) Resolve(ctx context.Context) ([]byte, error) { return f(ctx) }

// FileResolver reads bytecode verbatim from a file.
type FileResolver struct {
	Path string
}

func (r FileResolver) Resolve(ctx context.Context) ([]byte, error) {
	if r.Path == "" {
		return nil, errors.InvalidInput(errors.PhaseLoad, "no install script path")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.PhaseLoad, errors.KindNotFound).
				Detail("install script %q not found", r.Path).
				Cause(err).
				Build()
		}
		return nil, errors.Load("read install script "+r.Path, err)
	}
	return b, nil
}

// Extractor unpacks the files embedded in an installer executable into
// dest and returns the paths it wrote.
type Extractor interface {
	Extract(ctx context.Context, installer []byte, dest string) ([]string, error)
}

// ScriptFileName is the name extractors give the compiled code entry.
const ScriptFileName = "CompiledCode.bin"

// PayloadResolver extracts the installer and reads the compiled code entry
// from what the extractor wrote.
type PayloadResolver struct {
	Extractor Extractor
	Installer []byte
	Dest      string
}

func (r PayloadResolver) Resolve(ctx context.Context) ([]byte, error) {
	ex := r.Extractor
	if ex == nil {
		ex = UnsupportedExtractor{}
	}
	paths, err := ex.Extract(ctx, r.Installer, r.Dest)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		if filepath.Base(p) == ScriptFileName {
			return FileResolver{Path: p}.Resolve(ctx)
		}
	}
	return nil, errors.NotFound(errors.PhaseLoad, "embedded script", ScriptFileName)
}

// UnsupportedExtractor is the default extractor. Unpacking installer
// payloads is not implemented, so it always fails.
type UnsupportedExtractor struct{}

func (UnsupportedExtractor) Extract(context.Context, []byte, string) ([]string, error) {
	return nil, errors.Unsupported(errors.PhaseLoad, "extracting scripts from installer executables")
}

// Chain tries each resolver in order and returns the first success. If all
// fail, the combined error is returned.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context) ([]byte, error) {
	if len(c) == 0 {
		return nil, errors.NotFound(errors.PhaseLoad, "script source", "any")
	}
	var errs error
	for _, r := range c {
		b, err := r.Resolve(ctx)
		if err == nil {
			return b, nil
		}
		errs = multierr.Append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errs
}
