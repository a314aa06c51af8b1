package automation

import (
	"context"
	"fmt"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/experiment"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var log = logrus.WithField("component", "automation")

// Scenario is a scripted sequence of runs.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one run of a scenario. In YAML a step names a model and an
// optional preset; every other key is read as a config field on top of
// them:
//
//	- name: climb
//	  model: quadrotor
//	  preset: hover
//	  duration: 2
//	  save_as: climb-2s
type Step struct {
	Name   string
	Preset string
	SaveAs string
	Config *config.Config
}

func (s *Step) UnmarshalYAML(node *yaml.Node) error {
	var head struct {
		Name   string `yaml:"name"`
		Model  string `yaml:"model"`
		Preset string `yaml:"preset"`
		SaveAs string `yaml:"save_as"`
	}
	if err := node.Decode(&head); err != nil {
		return err
	}
	if head.Model == "" {
		head.Model = config.ModelDiffDrive
	}

	cfg := config.DefaultFor(head.Model)
	if head.Preset != "" {
		cfg = config.GetPreset(head.Model, head.Preset)
		if cfg == nil {
			return fmt.Errorf("line %d: unknown preset %s for %s", node.Line, head.Preset, head.Model)
		}
	}
	if err := node.Decode(cfg); err != nil {
		return err
	}
	if cfg.Model != head.Model {
		return fmt.Errorf("line %d: model changed from %s to %s", node.Line, head.Model, cfg.Model)
	}

	*s = Step{Name: head.Name, Preset: head.Preset, SaveAs: head.SaveAs, Config: cfg}
	if s.Name == "" {
		s.Name = head.Model
		if head.Preset != "" {
			s.Name += "/" + head.Preset
		}
	}
	return nil
}

func LoadScenario(fs afero.Fs, path string) (*Scenario, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%s: scenario has no steps", path)
	}
	return &scenario, nil
}

// Outcome is the result of one scenario step. RunID is empty when the
// run was not stored.
type Outcome struct {
	Step   string
	RunID  string
	Result *sim.Result
}

// RunScenario runs the steps in order and stops at the first failure,
// returning the outcomes so far. With a non-nil store every run is saved
// under its SaveAs name.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		log.WithFields(logrus.Fields{
			"scenario": scenario.Name,
			"step":     fmt.Sprintf("%d/%d", i+1, len(scenario.Steps)),
			"name":     step.Name,
		}).Info("running step")

		exp, err := experiment.New(step.Config)
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s): %w", i+1, step.Name, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("step %d (%s) run: %w", i+1, step.Name, err)
		}

		out := Outcome{Step: step.Name, Result: result}
		if st != nil {
			meta := storage.MetadataFor(step.Config)
			meta.Name = step.SaveAs
			if out.RunID, err = st.Save(meta, result); err != nil {
				return outcomes, fmt.Errorf("step %d (%s) save: %w", i+1, step.Name, err)
			}
		}
		outcomes = append(outcomes, out)
	}

	return outcomes, nil
}
