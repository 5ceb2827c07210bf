package render

import "fmt"

// Composite runs its child stages in registration order, feeding each
// stage's output to the next.
type Composite struct {
	stages []namedStage
}

type namedStage struct {
	name  string
	stage Stage
}

func NewComposite() *Composite {
	return &Composite{}
}

// Add appends a stage. name is used in error messages and metrics.
func (c *Composite) Add(name string, stage Stage) {
	c.stages = append(c.stages, namedStage{name: name, stage: stage})
}

// Names returns the child stage names in order.
func (c *Composite) Names() []string {
	names := make([]string, 0, len(c.stages))
	for _, s := range c.stages {
		names = append(names, s.name)
	}
	return names
}

func (c *Composite) Len() int { return len(c.stages) }

func (c *Composite) Render(page Page, content []string) ([]string, error) {
	for _, s := range c.stages {
		out, err := s.stage.Render(page, content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.name, err)
		}
		content = out
	}
	return content, nil
}
