// Package prompt asks for run options interactively.
package prompt

import (
	"github.com/pterm/pterm"

	"github.com/teranos/buildergen/errors"
)

// Prompter is the set of questions interactive mode asks.
type Prompter interface {
	Text(label, def string) (string, error)
	Confirm(label string, def bool) (bool, error)
	MultiSelect(label string, options, defaults []string) ([]string, error)
}

// Terminal prompts on the terminal with pterm.
type Terminal struct{}

func (Terminal) Text(label, def string) (string, error) {
	return pterm.DefaultInteractiveTextInput.WithDefaultValue(def).Show(label)
}

func (Terminal) Confirm(label string, def bool) (bool, error) {
	return pterm.DefaultInteractiveConfirm.WithDefaultValue(def).Show(label)
}

func (Terminal) MultiSelect(label string, options, defaults []string) ([]string, error) {
	return pterm.DefaultInteractiveMultiselect.
		WithOptions(options).
		WithDefaultOptions(defaults).
		WithMaxHeight(15).
		Show(label)
}

// Answers are the options interactive mode collects.
type Answers struct {
	Path      string
	OutputDir string
	// Shapes is empty when every shape was chosen.
	Shapes []string
}

// ShapeLister lists the shape names found under path.
type ShapeLister func(path string) ([]string, error)

// Ask walks the user through source path, output directory and shape
// selection, starting from defaults.
func Ask(p Prompter, defaults Answers, list ShapeLister) (Answers, error) {
	var out Answers
	var err error

	if out.Path, err = p.Text("Source path (directory, file or glob)", orDot(defaults.Path)); err != nil {
		return Answers{}, errors.Wrap(err, "prompt for source path")
	}
	if out.Path == "" {
		out.Path = orDot(defaults.Path)
	}
	if out.OutputDir, err = p.Text("Output directory (empty places builders beside their types)", defaults.OutputDir); err != nil {
		return Answers{}, errors.Wrap(err, "prompt for output directory")
	}

	all, err := p.Confirm("Build every shape found?", len(defaults.Shapes) == 0)
	if err != nil {
		return Answers{}, errors.Wrap(err, "prompt for shape selection")
	}
	if all {
		return out, nil
	}

	names, err := list(out.Path)
	if err != nil {
		return Answers{}, err
	}
	if len(names) == 0 {
		return Answers{}, errors.WithHint(
			errors.Newf("no shapes found under %s", out.Path),
			"builders are generated for struct types")
	}
	chosen, err := p.MultiSelect("Shapes", names, defaults.Shapes)
	if err != nil {
		return Answers{}, errors.Wrap(err, "prompt for shapes")
	}
	if len(chosen) == 0 {
		return Answers{}, errors.New("no shapes selected")
	}
	out.Shapes = chosen
	return out, nil
}

func orDot(path string) string {
	if path == "" {
		return "."
	}
	return path
}
