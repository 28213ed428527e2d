// Package pdf wraps the pdfcpu library behind the small surface the merge
// pipeline needs: concatenation, in-process optimization, encryption, and
// validation.
package pdf

import (
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoInput is returned when a merge is requested with no input files.
var ErrNoInput = errors.New("no input files")

// Engine performs PDF operations on files. It is stateless and safe for
// concurrent use; pdfcpu configurations are created per call because the
// library mutates them during processing.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

func (e *Engine) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Merge concatenates the given PDFs into outFile, preserving input order.
func (e *Engine) Merge(inFiles []string, outFile string) error {
	if len(inFiles) == 0 {
		return ErrNoInput
	}
	if err := api.MergeCreateFile(inFiles, outFile, false, e.config()); err != nil {
		return fmt.Errorf("failed to merge %d files: %w", len(inFiles), err)
	}
	return nil
}

// Optimize rewrites inFile to outFile with duplicate objects and unused
// resources removed. This is the "builtin" compression mode.
func (e *Engine) Optimize(inFile, outFile string) error {
	if err := api.OptimizeFile(inFile, outFile, e.config()); err != nil {
		return fmt.Errorf("failed to optimize %s: %w", inFile, err)
	}
	return nil
}

// Encrypt writes a copy of inFile to outFile protected with the given
// password (used as both user and owner password).
func (e *Engine) Encrypt(inFile, outFile, password string) error {
	if password == "" {
		return errors.New("encryption password must not be empty")
	}
	conf := e.config()
	conf.UserPW = password
	conf.OwnerPW = password
	if err := api.EncryptFile(inFile, outFile, conf); err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", inFile, err)
	}
	return nil
}

// Validate checks that inFile is a structurally sound PDF.
func (e *Engine) Validate(inFile string) error {
	if err := api.ValidateFile(inFile, e.config()); err != nil {
		return fmt.Errorf("invalid PDF %s: %w", inFile, err)
	}
	return nil
}
