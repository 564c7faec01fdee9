package check

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// UnknownPluginError is returned by Run when an enabled plugin is not registered.
type UnknownPluginError struct {
	Name  string
	Known []string
}

func (e *UnknownPluginError) Error() string {
	return fmt.Sprintf("unknown check plugin %q", e.Name)
}

// ExecutionError describes a check or plugin precondition that panicked.
// The runner reports it as a failed result instead of returning it.
type ExecutionError struct {
	Plugin string
	Check  string
	Value  any
	// Precondition is set when the plugin precondition panicked.
	Precondition bool
}

func (e *ExecutionError) Error() string {
	if e.Precondition {
		return fmt.Sprintf("precondition of check %s/%s crashed: %v", e.Plugin, e.Check, e.Value)
	}
	return fmt.Sprintf("check %s/%s crashed: %v", e.Plugin, e.Check, e.Value)
}

// Report contains all check results in execution order.
type Report struct {
	Results []Result
}

// Counts tallies results per status.
type Counts struct {
	Pass    int
	Warning int
	Fail    int
	Skipped int
}

// Total returns the number of counted results.
func (c Counts) Total() int {
	return c.Pass + c.Warning + c.Fail + c.Skipped
}

// Status returns fail if any result failed and pass otherwise.
func (r *Report) Status() Status {
	if r.Counts().Fail > 0 {
		return StatusFail
	}
	return StatusPass
}

// Passed reports whether no result failed.
func (r *Report) Passed() bool {
	return r.Status() == StatusPass
}

// Counts tallies the report's results per status.
func (r *Report) Counts() Counts {
	var c Counts
	if r == nil {
		return c
	}
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			c.Pass++
		case StatusWarning:
			c.Warning++
		case StatusFail:
			c.Fail++
		case StatusSkipped:
			c.Skipped++
		}
	}
	return c
}

// Plugins returns the plugin names present in the report, in order.
func (r *Report) Plugins() []string {
	var names []string
	seen := make(map[string]bool)
	for _, res := range r.Results {
		if !seen[res.Plugin] {
			seen[res.Plugin] = true
			names = append(names, res.Plugin)
		}
	}
	return names
}

// Run executes the enabled plugins against project.
// Plugins run in the order of enabled, or registration order when enabled is
// empty. Every name is checked before anything runs.
func Run(ctx context.Context, reg *Registry, project *Project, enabled []string) (*Report, error) {
	plugins, err := selectPlugins(reg, enabled)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, plugin := range plugins {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Results = append(report.Results, runPlugin(ctx, plugin, project)...)
	}
	return report, nil
}

func selectPlugins(reg *Registry, enabled []string) ([]Plugin, error) {
	if len(enabled) == 0 {
		enabled = reg.Names()
	}

	plugins := make([]Plugin, 0, len(enabled))
	seen := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		name = strings.TrimSpace(name)
		if seen[name] {
			continue
		}
		seen[name] = true
		p, ok := reg.Plugin(name)
		if !ok {
			return nil, &UnknownPluginError{Name: name, Known: reg.Names()}
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

func runPlugin(ctx context.Context, plugin Plugin, project *Project) []Result {
	logger := project.logger().With(zap.String("plugin", plugin.Name))

	if plugin.Precondition != nil {
		ok, reason, crash := runPrecondition(plugin, project)
		if crash != nil {
			logger.Error("plugin precondition crashed", zap.Any("panic", crash))
			return perCheck(plugin, func(c Check) Result {
				err := &ExecutionError{Plugin: plugin.Name, Check: c.Name, Value: crash, Precondition: true}
				return Fail(err.Error())
			})
		}
		if !ok {
			logger.Debug("plugin precondition not met, skipping", zap.String("reason", reason))
			return perCheck(plugin, func(Check) Result { return Skip(reason) })
		}
	}

	var results []Result
	for _, c := range plugin.Checks {
		checkResults := runCheck(ctx, plugin.Name, c, project)
		if len(checkResults) == 0 {
			checkResults = []Result{Pass("")}
		}
		for _, res := range checkResults {
			if res.Plugin == "" {
				res.Plugin = plugin.Name
			}
			if res.Check == "" {
				res.Check = c.Name
			}
			switch res.Status {
			case "":
				res.Status = StatusPass
			case StatusPass, StatusFail, StatusWarning, StatusSkipped:
			default:
				logger.Error("check returned an unknown status",
					zap.String("check", c.Name),
					zap.String("status", string(res.Status)))
				res.Message = fmt.Sprintf("check %s/%s returned unknown status %q", plugin.Name, c.Name, res.Status)
				res.Status = StatusFail
			}
			logger.Debug("check finished",
				zap.String("check", res.Check),
				zap.String("status", string(res.Status)))
			results = append(results, res)
		}
	}
	return results
}

// perCheck builds one result per check of plugin, stamped with its names.
func perCheck(plugin Plugin, build func(Check) Result) []Result {
	results := make([]Result, 0, len(plugin.Checks))
	for _, c := range plugin.Checks {
		res := build(c)
		res.Plugin = plugin.Name
		res.Check = c.Name
		results = append(results, res)
	}
	return results
}

func runPrecondition(plugin Plugin, project *Project) (ok bool, reason string, crash any) {
	defer func() {
		if v := recover(); v != nil {
			ok, reason, crash = false, "", v
		}
	}()
	ok, reason = plugin.Precondition(project)
	return ok, reason, nil
}

func runCheck(ctx context.Context, pluginName string, c Check, project *Project) (results []Result) {
	defer func() {
		if v := recover(); v != nil {
			err := &ExecutionError{Plugin: pluginName, Check: c.Name, Value: v}
			project.logger().Error("check crashed",
				zap.String("plugin", pluginName),
				zap.String("check", c.Name),
				zap.Any("panic", v))
			results = []Result{Fail(err.Error())}
		}
	}()
	return c.Run(ctx, project)
}
