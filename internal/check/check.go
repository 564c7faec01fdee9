// Package check runs named project validations and reports their results.
// Plugins group checks under a shared precondition; the runner executes them
// in a fixed order against a read-only Project and collects a Report used by
// the 'shiplog check' and 'shiplog changelog validate' commands.
package check

import (
	"context"

	"github.com/ariel-frischer/shiplog/internal/changelog"
	"github.com/ariel-frischer/shiplog/internal/config"
	"github.com/ariel-frischer/shiplog/internal/logging"
	"github.com/ariel-frischer/shiplog/internal/remote"
)

// Status is the outcome of a single check.
type Status string

// Check statuses in increasing order of severity, skipped aside.
const (
	StatusPass    Status = "pass"
	StatusWarning Status = "warning"
	StatusFail    Status = "fail"
	StatusSkipped Status = "skipped"
)

// Result represents the result of a single check.
// Plugin and Check are filled in by the runner when left empty.
type Result struct {
	Plugin  string
	Check   string
	Status  Status
	Message string
}

// Pass returns a passing result.
func Pass(message string) Result { return Result{Status: StatusPass, Message: message} }

// Fail returns a failing result.
func Fail(message string) Result { return Result{Status: StatusFail, Message: message} }

// Warn returns a warning result.
func Warn(message string) Result { return Result{Status: StatusWarning, Message: message} }

// Skip returns a skipped result.
func Skip(message string) Result { return Result{Status: StatusSkipped, Message: message} }

// Project is the read-only context handed to every check.
type Project struct {
	// Dir is the project root.
	Dir    string
	Config *config.Configuration
	Store  *changelog.Store
	// Remote is the resolver selection, including why it was chosen.
	Remote remote.Choice
	Logger *logging.Logger
}

// Resolver returns the selected resolver, never nil.
func (p *Project) Resolver() remote.Resolver {
	if p == nil || p.Remote.Resolver == nil {
		return remote.Null{}
	}
	return p.Remote.Resolver
}

func (p *Project) logger() *logging.Logger {
	if p == nil {
		return nil
	}
	return p.Logger
}

// Func is the body of a check. Returning no results counts as a pass.
type Func func(ctx context.Context, p *Project) []Result

// Check is a single named validation.
type Check struct {
	Name        string
	Description string
	Run         Func
}

// Plugin is an ordered group of checks sharing a precondition.
// A nil Precondition always holds.
type Plugin struct {
	Name         string
	Description  string
	Precondition func(p *Project) (ok bool, reason string)
	Checks       []Check
}
