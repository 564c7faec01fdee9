package check

import (
	"bytes"
	"context"
	"testing"

	"github.com/ariel-frischer/shiplog/internal/logging"
	"github.com/ariel-frischer/shiplog/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func constant(results ...Result) Func {
	return func(context.Context, *Project) []Result { return results }
}

func TestRegistry_Register(t *testing.T) {
	tests := map[string]struct {
		plugins []Plugin
		wantErr string
	}{
		"distinct plugins": {
			plugins: []Plugin{
				{Name: "a", Checks: []Check{{Name: "one", Run: constant()}}},
				{Name: "b", Checks: []Check{{Name: "one", Run: constant()}}},
			},
		},
		"duplicate plugin": {
			plugins: []Plugin{{Name: "a"}, {Name: "a"}},
			wantErr: `plugin "a" already registered`,
		},
		"duplicate check": {
			plugins: []Plugin{{Name: "a", Checks: []Check{
				{Name: "one", Run: constant()},
				{Name: "one", Run: constant()},
			}}},
			wantErr: `duplicate check "one"`,
		},
		"missing plugin name": {
			plugins: []Plugin{{}},
			wantErr: "plugin name is required",
		},
		"missing check name": {
			plugins: []Plugin{{Name: "a", Checks: []Check{{Run: constant()}}}},
			wantErr: "has no name",
		},
		"missing run function": {
			plugins: []Plugin{{Name: "a", Checks: []Check{{Name: "one"}}}},
			wantErr: "has no run function",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewRegistry(tt.plugins...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRegistry_NamesAndLookup(t *testing.T) {
	reg := &Registry{}
	reg.MustRegister(Plugin{Name: "changelog"})
	reg.MustRegister(Plugin{Name: "remote"})

	assert.Equal(t, []string{"changelog", "remote"}, reg.Names())

	p, ok := reg.Plugin("remote")
	assert.True(t, ok)
	assert.Equal(t, "remote", p.Name)

	_, ok = reg.Plugin("missing")
	assert.False(t, ok)

	assert.Panics(t, func() { reg.MustRegister(Plugin{Name: "remote"}) })
}

func TestRun(t *testing.T) {
	never := func(*Project) (bool, string) { return false, "nothing to check" }

	tests := map[string]struct {
		plugins []Plugin
		enabled []string
		want    []Result
		status  Status
	}{
		"empty check passes": {
			plugins: []Plugin{{Name: "p", Checks: []Check{{Name: "c", Run: constant()}}}},
			want:    []Result{{Plugin: "p", Check: "c", Status: StatusPass}},
			status:  StatusPass,
		},
		"results are stamped": {
			plugins: []Plugin{{Name: "p", Checks: []Check{
				{Name: "c", Run: constant(Warn("careful"), Fail("broken"))},
			}}},
			want: []Result{
				{Plugin: "p", Check: "c", Status: StatusWarning, Message: "careful"},
				{Plugin: "p", Check: "c", Status: StatusFail, Message: "broken"},
			},
			status: StatusFail,
		},
		"explicit check name is kept": {
			plugins: []Plugin{{Name: "p", Checks: []Check{
				{Name: "c", Run: constant(Result{Check: "c/file.toml", Status: StatusPass})},
			}}},
			want:   []Result{{Plugin: "p", Check: "c/file.toml", Status: StatusPass}},
			status: StatusPass,
		},
		"precondition false skips every check": {
			plugins: []Plugin{{Name: "p", Precondition: never, Checks: []Check{
				{Name: "a", Run: constant(Fail("unreachable"))},
				{Name: "b", Run: constant(Fail("unreachable"))},
			}}},
			want: []Result{
				{Plugin: "p", Check: "a", Status: StatusSkipped, Message: "nothing to check"},
				{Plugin: "p", Check: "b", Status: StatusSkipped, Message: "nothing to check"},
			},
			status: StatusPass,
		},
		"enabled order wins over registration order": {
			plugins: []Plugin{
				{Name: "first", Checks: []Check{{Name: "c", Run: constant(Pass("1"))}}},
				{Name: "second", Checks: []Check{{Name: "c", Run: constant(Pass("2"))}}},
			},
			enabled: []string{"second", "first"},
			want: []Result{
				{Plugin: "second", Check: "c", Status: StatusPass, Message: "2"},
				{Plugin: "first", Check: "c", Status: StatusPass, Message: "1"},
			},
			status: StatusPass,
		},
		"subset of plugins": {
			plugins: []Plugin{
				{Name: "first", Checks: []Check{{Name: "c", Run: constant(Fail("x"))}}},
				{Name: "second", Checks: []Check{{Name: "c", Run: constant(Pass("2"))}}},
			},
			enabled: []string{"second"},
			want:    []Result{{Plugin: "second", Check: "c", Status: StatusPass, Message: "2"}},
			status:  StatusPass,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			reg, err := NewRegistry(tt.plugins...)
			require.NoError(t, err)

			report, err := Run(context.Background(), reg, &Project{}, tt.enabled)
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.Results)
			assert.Equal(t, tt.status, report.Status())
		})
	}
}

func TestRun_UnknownPluginRunsNothing(t *testing.T) {
	ran := false
	reg, err := NewRegistry(Plugin{Name: "known", Checks: []Check{{
		Name: "c",
		Run: func(context.Context, *Project) []Result {
			ran = true
			return nil
		},
	}}})
	require.NoError(t, err)

	report, err := Run(context.Background(), reg, &Project{}, []string{"known", "missing"})

	require.Error(t, err)
	assert.Nil(t, report)
	assert.False(t, ran)
	var unknown *UnknownPluginError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)
	assert.Equal(t, []string{"known"}, unknown.Known)
}

func TestRun_PanicBecomesFailure(t *testing.T) {
	logger := logging.NewTestLogger()
	reg, err := NewRegistry(Plugin{Name: "p", Checks: []Check{
		{Name: "explodes", Run: func(context.Context, *Project) []Result { panic("kaboom") }},
		{Name: "after", Run: constant(Pass("still runs"))},
	}})
	require.NoError(t, err)

	report, err := Run(context.Background(), reg, &Project{Logger: logger.Logger}, nil)

	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	failed := report.Results[0]
	assert.Equal(t, StatusFail, failed.Status)
	assert.Equal(t, "explodes", failed.Check)
	assert.Contains(t, failed.Message, "p/explodes")
	assert.Contains(t, failed.Message, "kaboom")
	assert.Equal(t, StatusPass, report.Results[1].Status)
	assert.Equal(t, StatusFail, report.Status())
	logger.AssertLogged(t, zapcore.ErrorLevel, "check crashed")
}

func TestRun_PreconditionPanicBecomesFailure(t *testing.T) {
	logger := logging.NewTestLogger()
	reg, err := NewRegistry(
		Plugin{
			Name:         "bad",
			Precondition: func(*Project) (bool, string) { panic("boom") },
			Checks: []Check{
				{Name: "first", Run: constant(Pass("never"))},
				{Name: "second", Run: constant(Pass("never"))},
			},
		},
		Plugin{Name: "good", Checks: []Check{{Name: "ok", Run: constant(Pass("ran"))}}},
	)
	require.NoError(t, err)

	var report *Report
	require.NotPanics(t, func() {
		report, err = Run(context.Background(), reg, &Project{Logger: logger.Logger}, nil)
	})

	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	for i, name := range []string{"first", "second"} {
		res := report.Results[i]
		assert.Equal(t, "bad", res.Plugin)
		assert.Equal(t, name, res.Check)
		assert.Equal(t, StatusFail, res.Status)
		assert.Contains(t, res.Message, "bad/"+name)
		assert.Contains(t, res.Message, "boom")
	}
	assert.Equal(t, Result{Plugin: "good", Check: "ok", Status: StatusPass, Message: "ran"}, report.Results[2])
	assert.Equal(t, StatusFail, report.Status())
	logger.AssertLogged(t, zapcore.ErrorLevel, "precondition crashed")
}

func TestRun_UnknownStatusBecomesFailure(t *testing.T) {
	tests := map[string]struct {
		status     Status
		wantStatus Status
	}{
		"uppercase fail": {status: "FAIL", wantStatus: StatusFail},
		"made up":        {status: "maybe", wantStatus: StatusFail},
		"empty is pass":  {status: "", wantStatus: StatusPass},
		"warning kept":   {status: StatusWarning, wantStatus: StatusWarning},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			reg, err := NewRegistry(Plugin{Name: "p", Checks: []Check{
				{Name: "c", Run: constant(Result{Status: tt.status, Message: "original"})},
			}})
			require.NoError(t, err)

			report, err := Run(context.Background(), reg, &Project{}, nil)

			require.NoError(t, err)
			require.Len(t, report.Results, 1)
			assert.Equal(t, tt.wantStatus, report.Results[0].Status)
			if tt.wantStatus == StatusFail {
				assert.Contains(t, report.Results[0].Message, "p/c")
				assert.Contains(t, report.Results[0].Message, string(tt.status))
				assert.Equal(t, 1, report.Counts().Fail)
				assert.Equal(t, StatusFail, report.Status())
			}
		})
	}
}

func TestRun_CancelledContext(t *testing.T) {
	reg, err := NewRegistry(Plugin{Name: "p", Checks: []Check{{Name: "c", Run: constant()}}})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, reg, &Project{}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}

func TestReport_Counts(t *testing.T) {
	report := &Report{Results: []Result{
		{Status: StatusPass}, {Status: StatusPass}, {Status: StatusWarning},
		{Status: StatusSkipped}, {Status: StatusFail},
	}}

	counts := report.Counts()

	assert.Equal(t, Counts{Pass: 2, Warning: 1, Fail: 1, Skipped: 1}, counts)
	assert.Equal(t, 5, counts.Total())
	assert.False(t, report.Passed())
}

func TestReport_WarningsDoNotFail(t *testing.T) {
	report := &Report{Results: []Result{{Status: StatusPass}, {Status: StatusWarning}}}

	assert.Equal(t, StatusPass, report.Status())
	assert.True(t, report.Passed())
}

func TestProject_Resolver(t *testing.T) {
	var nilProject *Project
	assert.True(t, remote.IsNull(nilProject.Resolver()))
	assert.True(t, remote.IsNull((&Project{}).Resolver()))
}

func TestFormatReport(t *testing.T) {
	report := &Report{Results: []Result{
		{Plugin: "changelog", Check: "validate", Status: StatusPass, Message: "All 2 changelogs are valid"},
		{Plugin: "changelog", Check: "pr-references", Status: StatusWarning, Message: "1 entry without PR"},
		{Plugin: "remote", Check: "detected", Status: StatusFail, Message: "no remote"},
		{Plugin: "release", Check: "version-references", Status: StatusSkipped, Message: "not configured"},
	}}
	var buf bytes.Buffer

	require.NoError(t, FormatReport(&buf, report, true))

	want := "changelog:\n" +
		"  ✓ validate: All 2 changelogs are valid\n" +
		"  ! pr-references: 1 entry without PR\n" +
		"\n" +
		"remote:\n" +
		"  ✗ detected: no remote\n" +
		"\n" +
		"release:\n" +
		"  ○ version-references: not configured\n" +
		"\n" +
		"FAIL: 1 passed, 1 failed, 1 warnings, 1 skipped\n"
	assert.Equal(t, want, buf.String())
}

func TestFormatReport_NoMessage(t *testing.T) {
	report := &Report{Results: []Result{{Plugin: "p", Check: "c", Status: StatusPass}}}
	var buf bytes.Buffer

	require.NoError(t, FormatReport(&buf, report, true))

	assert.Equal(t, "p:\n  ✓ c\n\nPASS: 1 passed, 0 failed, 0 warnings, 0 skipped\n", buf.String())
}

func TestSymbol(t *testing.T) {
	tests := map[string]struct {
		status Status
		want   string
	}{
		"pass":    {status: StatusPass, want: "✓"},
		"fail":    {status: StatusFail, want: "✗"},
		"warning": {status: StatusWarning, want: "!"},
		"skipped": {status: StatusSkipped, want: "○"},
		"unknown": {status: Status("other"), want: "?"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Symbol(tt.status))
		})
	}
}
