package probe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serrors "git.home.luguber.info/inful/sitesetup/internal/errors"
	"git.home.luguber.info/inful/sitesetup/internal/process/processtest"
)

func fakePath(found map[string]string) func(string) (string, error) {
	return func(name string) (string, error) {
		if p, ok := found[name]; ok {
			return p, nil
		}
		return "", errors.New("executable file not found in $PATH")
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Python 3.12.1\n", "3.12.1"},
		{"Python 2.7", "2.7"},
		{"python v3.11.0rc1", "3.11.0"},
		{"no version here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseVersion(tt.in), tt.in)
	}
}

func TestProbe_FindsFirstCandidate(t *testing.T) {
	runner := (&processtest.FakeRunner{}).On("/usr/bin/python3 --version", processtest.Response{Output: "Python 3.12.1\n"})
	p := New(runner).WithLookPath(fakePath(map[string]string{
		"python3": "/usr/bin/python3",
		"python":  "/usr/bin/python",
		"mkdocs":  "/usr/local/bin/mkdocs",
	}))

	env, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, env.HasInterpreter())
	assert.Equal(t, "python3", env.Interpreter.Name)
	assert.Equal(t, "3.12.1", env.Interpreter.Version)
	assert.True(t, env.HasMkDocs())
	assert.Equal(t, []string{"/usr/bin/python3 --version"}, runner.Commands())
}

func TestProbe_FallsBackToPython(t *testing.T) {
	runner := (&processtest.FakeRunner{}).On("/usr/bin/python --version", processtest.Response{Output: "Python 3.9.2"})
	p := New(runner).WithLookPath(fakePath(map[string]string{"python": "/usr/bin/python"}))

	env, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "python", env.Interpreter.Name)
	assert.False(t, env.HasMkDocs())
}

func TestProbe_MissingInterpreterIsEnvironmentError(t *testing.T) {
	runner := &processtest.FakeRunner{}
	p := New(runner).WithLookPath(fakePath(nil))

	env, err := p.Probe(context.Background())
	require.Error(t, err)
	assert.True(t, serrors.IsCategory(err, serrors.CategoryEnvironment))
	assert.False(t, env.HasInterpreter())
	assert.Empty(t, runner.Calls, "no command may run without an interpreter")
}

func TestProbe_VersionFailureIsNotFatal(t *testing.T) {
	runner := (&processtest.FakeRunner{}).On("/usr/bin/python3", processtest.Response{ExitCode: 1, Output: "broken"})
	p := New(runner).WithLookPath(fakePath(map[string]string{"python3": "/usr/bin/python3"}))

	env, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.True(t, env.HasInterpreter())
	assert.Empty(t, env.Interpreter.Version)
}

func TestProbe_CustomCandidates(t *testing.T) {
	runner := (&processtest.FakeRunner{}).On("/opt/py/bin/py --version", processtest.Response{Output: "Python 3.13.0"})
	p := New(runner).
		WithInterpreters("py").
		WithLookPath(fakePath(map[string]string{"py": "/opt/py/bin/py", "python3": "/usr/bin/python3"}))

	env, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "py", env.Interpreter.Name)
	assert.Equal(t, "3.13.0", env.Interpreter.Version)
}
