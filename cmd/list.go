package cmd

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psmoveservice/psmbind/binding"
	"github.com/psmoveservice/psmbind/discover"
	"github.com/psmoveservice/psmbind/envconfig"
	"github.com/psmoveservice/psmbind/format"
	"github.com/psmoveservice/psmbind/header"
)

func renderTable(w io.Writer, headers []string, data [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(data)
	table.Render()
}

func LocateHandler(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}

	loc := opts.locator()

	var paths []string
	if all {
		if p, err := loc.BuildPath(); err == nil {
			if _, err := os.Stat(p); err == nil {
				paths = append(paths, p)
			}
		}
		for _, p := range discover.FindLibraries(loc.Platform, loc.LibraryName()) {
			if !slices.Contains(paths, p) {
				paths = append(paths, p)
			}
		}
		if len(paths) == 0 {
			return fmt.Errorf("%w: %s", discover.ErrLibraryNotFound, loc.LibraryName())
		}
	} else {
		p, err := loc.Find()
		if err != nil {
			return err
		}
		paths = append(paths, p)
	}

	var data [][]string
	for _, p := range paths {
		fi, err := os.Stat(p)
		if err != nil {
			return err
		}
		data = append(data, []string{p, format.HumanBytes(fi.Size()), format.HumanTime(fi.ModTime(), "Never")})
	}

	renderTable(cmd.OutOrStdout(), []string{"PATH", "SIZE", "MODIFIED"}, data)
	return nil
}

func DeclsHandler(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	n, err := opts.normalizer()
	if err != nil {
		return err
	}
	text, err := n.NormalizeFile(opts.underRoot(opts.Header))
	if err != nil {
		return err
	}
	decls, err := header.ParseDecls(text)
	if err != nil {
		return err
	}

	// only the skip report matters here, so the configured package name
	// is not validated
	skipped, err := binding.Generate(io.Discard, &binding.Binding{
		Package:   "decls",
		Decls:     decls,
		Constants: n.Constants,
	})
	if err != nil {
		return err
	}
	reasons := make(map[string]string)
	for _, s := range skipped {
		reasons[s.Func.Name] = s.Reason.Error()
	}

	var data [][]string
	for _, t := range decls.Types {
		data = append(data, []string{t.Name, string(t.Kind), ""})
	}
	for _, f := range decls.Funcs {
		status := "ok"
		if r, ok := reasons[f.Name]; ok {
			status = "skipped: " + r
		}
		data = append(data, []string{f.Signature(), "function", status})
	}

	renderTable(cmd.OutOrStdout(), []string{"DECLARATION", "KIND", "BINDING"}, data)
	return nil
}

func ConstantsHandler(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	constants, err := opts.constants()
	if err != nil {
		return err
	}

	var data [][]string
	for _, c := range constants {
		data = append(data, []string{c.Name, c.Value, c.Source})
	}

	renderTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "SOURCE"}, data)
	return nil
}

func EnvHandler(cmd *cobra.Command, args []string) error {
	vars := envconfig.AsMap()
	values := envconfig.Values()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var data [][]string
	for _, name := range names {
		data = append(data, []string{name, strings.TrimSpace(values[name]), vars[name].Description})
	}

	renderTable(cmd.OutOrStdout(), []string{"NAME", "VALUE", "DESCRIPTION"}, data)
	return nil
}
