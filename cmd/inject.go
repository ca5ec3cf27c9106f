package cmd

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/bulkedit/application"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction/gomod"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction/hclattr"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction/jsonpath"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction/regex"
	"github.com/rios0rios0/bulkedit/infrastructure/extraction/yamlpath"
	forgePkg "github.com/rios0rios0/bulkedit/infrastructure/forge"
	ghForge "github.com/rios0rios0/bulkedit/infrastructure/forge/github"
	glForge "github.com/rios0rios0/bulkedit/infrastructure/forge/gitlab"
)

// registerProviders registers every constructor the commands need with the
// DIG container.
func registerProviders(container *dig.Container) error {
	if err := container.Provide(newForgeRegistry); err != nil {
		return err
	}
	if err := container.Provide(newStrategyRegistry); err != nil {
		return err
	}
	if err := container.Provide(application.NewBatchService); err != nil {
		return err
	}
	return nil
}

func newForgeRegistry() *forgePkg.Registry {
	reg := forgePkg.NewRegistry()
	reg.Register("github", ghForge.New)
	reg.Register("gitlab", glForge.New)
	return reg
}

func newStrategyRegistry() *extraction.Registry {
	reg := extraction.NewRegistry()
	reg.Register(regex.New())
	reg.Register(jsonpath.New())
	reg.Register(yamlpath.New())
	reg.Register(hclattr.New())
	reg.Register(gomod.New())
	return reg
}

func injectBatchService() *application.BatchService {
	container := dig.New()

	if err := registerProviders(container); err != nil {
		panic(err)
	}

	var svc *application.BatchService
	if err := container.Invoke(func(s *application.BatchService) {
		svc = s
	}); err != nil {
		panic(err)
	}

	return svc
}

func injectForgeRegistry() *forgePkg.Registry {
	container := dig.New()

	if err := registerProviders(container); err != nil {
		panic(err)
	}

	var reg *forgePkg.Registry
	if err := container.Invoke(func(r *forgePkg.Registry) {
		reg = r
	}); err != nil {
		panic(err)
	}

	return reg
}

func injectStrategyRegistry() *extraction.Registry {
	container := dig.New()

	if err := registerProviders(container); err != nil {
		panic(err)
	}

	var reg *extraction.Registry
	if err := container.Invoke(func(r *extraction.Registry) {
		reg = r
	}); err != nil {
		panic(err)
	}

	return reg
}
