package main

import (
	"path/filepath"

	"github.com/davidahmann/scribe/core/projectconfig"
	"github.com/davidahmann/scribe/core/repo"
)

// resolveContext establishes the boundary and project config for commands
// operating on the sharded log. Resolution failure is fatal to the command,
// never deferred to write time.
func resolveContext(workDir string) (repo.Boundary, projectconfig.Config, error) {
	boundary, err := repo.Resolve(workDir)
	if err != nil {
		return repo.Boundary{}, projectconfig.Config{}, err
	}
	configuration, err := projectconfig.Load(filepath.Join(boundary.Root, projectconfig.DefaultPath), true)
	if err != nil {
		return repo.Boundary{}, projectconfig.Config{}, err
	}
	return boundary, configuration, nil
}
