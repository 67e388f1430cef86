package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/shape"
)

var shapesFormat string

// ShapesCmd lists the shapes found under the given paths
var ShapesCmd = &cobra.Command{
	Use:   "shapes [paths...]",
	Short: "List struct types and how their fields classify",
	Long: `Load the given paths and list every struct type buildergen would build
for, with each field's type, classification and nested shape.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = cfg.Files
		}
		ix, _, err := loadIndex(cmd.Context(), args)
		if err != nil {
			return err
		}

		var listing []shapeInfo
		for _, s := range ix.Shapes() {
			fields, err := ix.FieldsOf(s, shape.NewQualifier(s.PkgPath))
			if err != nil {
				return err
			}
			listing = append(listing, describe(s, fields))
		}
		return printShapes(cmd, listing)
	},
}

func init() {
	ShapesCmd.Flags().StringVar(&shapesFormat, "format", "table", "Output format: table, yaml, json")
}

type fieldInfo struct {
	Name     string `json:"name" yaml:"name"`
	Type     string `json:"type" yaml:"type"`
	Class    string `json:"class" yaml:"class"`
	Optional bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Nested   string `json:"nested,omitempty" yaml:"nested,omitempty"`
}

type shapeInfo struct {
	Name   string      `json:"name" yaml:"name"`
	ID     string      `json:"id" yaml:"id"`
	Form   string      `json:"form" yaml:"form"`
	File   string      `json:"file" yaml:"file"`
	Fields []fieldInfo `json:"fields" yaml:"fields"`
}

func describe(s *shape.Shape, fields []shape.Field) shapeInfo {
	info := shapeInfo{Name: s.Name, ID: s.ID, Form: shape.Form(s.Source), File: relPath(s.File)}
	for _, f := range fields {
		fi := fieldInfo{Name: f.Name, Type: f.TypeText, Class: f.Class.String(), Optional: f.Optional}
		if f.IsObjectReference() {
			fi.Nested = f.Nested.ID
		}
		info.Fields = append(info.Fields, fi)
	}
	return info
}

func printShapes(cmd *cobra.Command, listing []shapeInfo) error {
	w := cmd.OutOrStdout()
	switch shapesFormat {
	case "json":
		data, err := json.MarshalIndent(listing, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal shapes")
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		data, err := yaml.Marshal(listing)
		if err != nil {
			return errors.Wrap(err, "failed to marshal shapes")
		}
		fmt.Fprint(w, string(data))
	case "table":
		data := pterm.TableData{{"Shape", "Form", "Field", "Type", "Class", "Nested"}}
		for _, s := range listing {
			if len(s.Fields) == 0 {
				data = append(data, []string{s.Name, s.Form, "", "", "", ""})
			}
			for i, f := range s.Fields {
				name, form := "", ""
				if i == 0 {
					name, form = s.Name, s.Form
				}
				data = append(data, []string{name, form, f.Name, f.Type, f.Class, f.Nested})
			}
		}
		return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
	default:
		return errors.Newf("unsupported format: %s (supported: table, yaml, json)", shapesFormat)
	}
	return nil
}
