package commands

import (
	"git.home.luguber.info/inful/sitesetup/internal/install"
)

// ProbeCmd implements the 'probe' command.
type ProbeCmd struct{}

func (p *ProbeCmd) Run(g *Global, _ *CLI) error {
	env, err := g.prober().Probe(g.Ctx)
	if err != nil {
		return err
	}
	w := g.Console
	w.Println("interpreter: %s", env.Interpreter.Path)
	if env.Interpreter.Version != "" {
		w.Println("version:     %s", env.Interpreter.Version)
	} else {
		w.Println("version:     unknown")
	}
	if env.HasMkDocs() {
		w.Println("mkdocs:      %s", env.MkDocsPath)
	} else {
		w.Println("mkdocs:      not on PATH (builds use the interpreter's mkdocs module)")
	}
	w.Println("packages installed by setup:")
	w.List(install.Packages)
	return nil
}
