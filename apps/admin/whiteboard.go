package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
)

var stdin io.Reader = os.Stdin // mockable

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// loadSpec decodes a spec file, as YAML when its extension says so and as JSON otherwise,
// and checks its value ranges.
func (cli *commandLine) loadSpec(path string) (whiteboard.Spec, error) {
	var spec whiteboard.Spec
	data, err := readInput(path)
	if err != nil {
		return spec, errors.Wrap(err, "reading spec")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &spec)
	default:
		err = json.Unmarshal(data, &spec)
	}
	if err != nil {
		return spec, errors.Wrap(err, "decoding spec")
	}

	if err = spec.Validate(cli.validate); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			err = core.NewFieldErrors(vErrs, cli.translator)
		}
		return spec, errors.Wrap(err, "invalid spec")
	}
	return spec, nil
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (cli *commandLine) sanitize(path string) error {
	data, err := readInput(path)
	if err != nil {
		return errors.Wrap(err, "reading commands")
	}
	cmds, rep := cli.sanitizer.SanitizeJSON(data)
	return cli.printJSON(map[string]interface{}{"commands": cmds, "report": rep})
}

func (cli *commandLine) score(cmdsPath, specPath string, canvas whiteboard.Canvas) error {
	data, err := readInput(cmdsPath)
	if err != nil {
		return errors.Wrap(err, "reading commands")
	}
	spec, err := cli.loadSpec(specPath)
	if err != nil {
		return err
	}

	def := cli.sanitizer.Canvas()
	if canvas.Width <= 0 {
		canvas.Width = def.Width
	}
	if canvas.Height <= 0 {
		canvas.Height = def.Height
	}
	s := cli.sanitizer.WithCanvas(canvas)
	cmds, _ := s.SanitizeJSON(data)
	return cli.printJSON(whiteboard.ScoreAttempt(cmds, spec, s.Canvas()))
}
