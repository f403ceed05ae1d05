package task

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

var _ SourceProvider = &FileSystemSourceProvider{}

// DefaultIgnoreGlobs lists directories never searched for task files.
var DefaultIgnoreGlobs = []string{".git", "node_modules", ".venv", "venv", "__pycache__"}

// FileSystemSourceProvider discovers task definition files below rootDir.
type FileSystemSourceProvider struct {
	rootDir        string
	fs             fs.FS
	maxFileSize    int64
	match          func(path string) bool
	ignoreMatchers []func(string, fs.DirEntry) bool
}

// NewFileSystemSourceProvider walks rootDir, or fss[0] when given, and
// reports paths joined onto rootDir.
func NewFileSystemSourceProvider(rootDir string, fss ...fs.FS) *FileSystemSourceProvider {
	fsys := os.DirFS(rootDir)
	if len(fss) > 0 {
		fsys = fss[0]
	}
	return &FileSystemSourceProvider{
		rootDir: rootDir,
		fs:      fsys,
		match:   IsTaskFile,
	}
}

var ErrScriptTooLarge = errors.New("task file exceeds maximum size limit")

func (p *FileSystemSourceProvider) WithMaxFileSize(limit int64) *FileSystemSourceProvider {
	p.maxFileSize = limit
	return p
}

// WithMatcher replaces the file name convention used to select files.
func (p *FileSystemSourceProvider) WithMatcher(match func(path string) bool) *FileSystemSourceProvider {
	if match != nil {
		p.match = match
	}
	return p
}

// WithIgnoreGlobs skips files or directories matching any glob pattern
// (filepath.Match semantics). A pattern matches either the path relative
// to rootDir, using "/" separators, or the entry's base name.
func (p *FileSystemSourceProvider) WithIgnoreGlobs(patterns ...string) *FileSystemSourceProvider {
	for _, pat := range patterns {
		if pat == "" {
			continue
		}
		p.ignoreMatchers = append(p.ignoreMatchers, func(path string, d fs.DirEntry) bool {
			if matched, _ := filepath.Match(pat, path); matched {
				return true
			}
			matched, _ := filepath.Match(pat, d.Name())
			return matched
		})
	}
	return p
}

func (p *FileSystemSourceProvider) GetScript(path string) ([]byte, error) {
	if p.rootDir != "" && filepath.IsAbs(path) {
		if rel, err := filepath.Rel(p.rootDir, path); err == nil {
			path = rel
		}
	}
	path = filepath.ToSlash(filepath.Clean(path))

	file, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	content, readErr := p.readFile(context.Background(), path, file)
	closeErr := file.Close()
	if readErr != nil {
		return nil, readErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close file %s: %w", path, closeErr)
	}
	return content, nil
}

// ListScripts returns matching files in lexical walk order.
func (p *FileSystemSourceProvider) ListScripts(ctx context.Context) ([]ScriptInfo, error) {
	var scripts []ScriptInfo

	err := fs.WalkDir(p.fs, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if path != "." && p.shouldIgnore(path, d) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() || !p.match(path) {
			return nil
		}

		content, err := p.loadScriptContent(ctx, path)
		if err != nil {
			return err
		}

		absPath := filepath.FromSlash(path)
		if p.rootDir != "" {
			absPath = filepath.Join(p.rootDir, absPath)
		}
		scripts = append(scripts, ScriptInfo{
			ID:      path,
			Path:    absPath,
			Content: content,
		})

		return ctx.Err()
	})

	if err != nil {
		return nil, err
	}

	return scripts, nil
}

func (p *FileSystemSourceProvider) loadScriptContent(ctx context.Context, path string) ([]byte, error) {
	file, err := p.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	content, readErr := p.readFile(ctx, path, file)
	closeErr := file.Close()

	if readErr != nil {
		return nil, readErr
	}
	if closeErr != nil {
		return nil, fmt.Errorf("failed to close file %s: %w", path, closeErr)
	}
	return content, nil
}

func (p *FileSystemSourceProvider) readFile(ctx context.Context, path string, file fs.File) ([]byte, error) {
	if info, err := file.Stat(); err == nil {
		if p.maxFileSize > 0 && info.Size() > p.maxFileSize {
			return nil, fmt.Errorf("%w: %s has size %d bytes (limit %d)", ErrScriptTooLarge, path, info.Size(), p.maxFileSize)
		}
	}

	var buf bytes.Buffer
	var reader io.Reader = file
	if p.maxFileSize > 0 {
		reader = io.LimitReader(file, p.maxFileSize+1)
	}

	if _, err := io.Copy(&buf, readerWithContext{ctx: ctx, r: reader}); err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if p.maxFileSize > 0 && int64(buf.Len()) > p.maxFileSize {
		return nil, fmt.Errorf("%w: %s exceeded limit %d bytes", ErrScriptTooLarge, path, p.maxFileSize)
	}
	return buf.Bytes(), nil
}

func (p *FileSystemSourceProvider) shouldIgnore(path string, d fs.DirEntry) bool {
	for _, matcher := range p.ignoreMatchers {
		if matcher != nil && matcher(path, d) {
			return true
		}
	}
	return false
}

type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
