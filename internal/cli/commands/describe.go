package commands

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/yahoo/elide-sub004/internal/cli/ui"
	"github.com/yahoo/elide-sub004/internal/dictionary"
)

// NewDescribeCommand creates the describe command
func NewDescribeCommand() *cobra.Command {
	var apiVersion string

	cmd := &cobra.Command{
		Use:   "describe [type...]",
		Short: "Show the bound entity dictionary",
		Long: `Print every bound entity with its id, attributes, relationships,
pagination and permission expressions.

Examples:
  elide describe
  elide describe book author
  elide describe --api-version=2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}
			defer p.logger.Sync()
			return describe(cmd.OutOrStdout(), p.dictionary, apiVersion, args)
		},
	}

	cmd.Flags().StringVar(&apiVersion, "api-version", dictionary.NoVersion, "API version to describe")

	return cmd
}

func describe(out io.Writer, d *dictionary.Dictionary, version string, names []string) error {
	types := d.BoundClassesByVersion(version)
	if len(names) > 0 {
		types = types[:0:0]
		for _, name := range names {
			t := d.EntityClass(name, version)
			if t == nil {
				var known []string
				for _, bound := range d.BoundClassesByVersion(version) {
					known = append(known, d.JSONAliasFor(bound))
				}
				return ui.NewNotFoundError("entity", name, known)
			}
			types = append(types, t)
		}
	} else {
		sort.Slice(types, func(i, j int) bool {
			return d.JSONAliasFor(types[i]) < d.JSONAliasFor(types[j])
		})
	}

	headerColor := color.New(color.FgCyan, color.Bold)
	labelColor := color.New(color.FgYellow)
	dimColor := color.New(color.FgHiBlack)

	for i, t := range types {
		if i > 0 {
			fmt.Fprintln(out)
		}

		headerColor.Fprint(out, d.JSONAliasFor(t))
		dimColor.Fprintf(out, " (%s)", t.Name())
		if d.IsRoot(t) {
			fmt.Fprint(out, " [root]")
		}
		fmt.Fprintln(out)

		if description := dictionary.EntityDescription(t); description != "" {
			fmt.Fprintf(out, "  %s\n", description)
		}

		labelColor.Fprint(out, "  id: ")
		fmt.Fprintf(out, "%s %s", d.IDFieldName(t), typeName(d.IDType(t)))
		if d.IsIDGenerated(t) {
			fmt.Fprint(out, " (generated)")
		}
		fmt.Fprintln(out)

		if attributes := d.Attributes(t); len(attributes) > 0 {
			labelColor.Fprintln(out, "  attributes:")
			for _, attr := range attributes {
				fmt.Fprintf(out, "    %s %s", attr, typeName(d.Type(t, attr)))
				if d.IsComputed(t, attr) {
					fmt.Fprint(out, " (computed)")
				}
				fmt.Fprintln(out)
			}
		}

		if relationships := d.Relationships(t); len(relationships) > 0 {
			labelColor.Fprintln(out, "  relationships:")
			for _, rel := range relationships {
				target := d.ParameterizedType(t, rel, 0)
				fmt.Fprintf(out, "    %s -> %s %s", rel, d.JSONAliasFor(target), d.RelationshipType(t, rel))
				if inverse := d.RelationInverse(t, rel); inverse != "" {
					fmt.Fprintf(out, " (inverse %s)", inverse)
				}
				fmt.Fprintln(out)
			}
		}

		labelColor.Fprint(out, "  pagination: ")
		fmt.Fprintln(out, describePagination(d.Paginate(t)))

		var permissions []string
		for _, kind := range dictionary.PermissionKinds {
			if node := d.PermissionsForClass(t, kind); node != nil {
				permissions = append(permissions, fmt.Sprintf("    %s: %s", kind, node))
			}
		}
		for _, field := range d.AllFields(t) {
			for _, kind := range dictionary.PermissionKinds {
				if node := d.PermissionsForField(t, field, kind); node != nil {
					permissions = append(permissions, fmt.Sprintf("    %s.%s: %s", field, kind, node))
				}
			}
		}
		if len(permissions) > 0 {
			labelColor.Fprintln(out, "  permissions:")
			for _, line := range permissions {
				fmt.Fprintln(out, line)
			}
		}
	}
	return nil
}

func describePagination(p dictionary.Pagination) string {
	var modes []string
	if p.Supports(dictionary.PaginationOffset) {
		modes = append(modes, "offset")
	}
	if p.Supports(dictionary.PaginationCursor) {
		modes = append(modes, "cursor")
	}
	if !p.CountAllowed {
		modes = append(modes, "nocount")
	}
	return strings.Join(modes, ", ")
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "?"
	}
	return t.String()
}
