package locator

import (
	"fmt"

	"github.com/xraph/go-utils/errs"
)

// Validate checks a container against a declared manifest before anything
// is resolved:
//   - every manifest service is registered, with the declared lifecycle
//   - every non-optional declared dependency is registered
//   - the eager dependency graph (manifest plus dependencies declared on
//     registrations) has no cycle
//
// All problems are reported together in one validation error.
func Validate(c Container, m *Manifest) error {
	var problems []error

	graph := NewDependencyGraph()

	for _, svc := range m.Services {
		graph.AddNodeWithDeps(svc.Name, svc.Deps())

		if !c.Has(svc.Name) {
			problems = append(problems, fmt.Errorf("service '%s' is declared but not registered", svc.Name))

			continue
		}

		if info := c.Inspect(svc.Name); info.Lifecycle != svc.lifecycle() {
			problems = append(problems, fmt.Errorf("service '%s' is declared %s but registered %s",
				svc.Name, svc.lifecycle(), info.Lifecycle))
		}

		for _, dep := range svc.Deps() {
			if !dep.Mode.IsOptional() && !c.Has(dep.Name) {
				problems = append(problems, fmt.Errorf("service '%s' depends on '%s' which is not registered",
					svc.Name, dep.Name))
			}
		}
	}

	for _, name := range c.Services() {
		if deps := c.Inspect(name).Deps; len(deps) > 0 {
			graph.AddNodeWithDeps(name, deps)
		}
	}

	if _, err := graph.TopologicalSortEagerOnly(); err != nil {
		problems = append(problems, err)
	}

	if len(problems) == 0 {
		return nil
	}

	return errs.NewError(
		errs.CodeValidation,
		fmt.Sprintf("dependency manifest validation failed with %d problem(s)", len(problems)),
		errs.Join(problems...),
	)
}
