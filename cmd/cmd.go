package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/psmoveservice/psmbind/build"
	"github.com/psmoveservice/psmbind/discover"
	"github.com/psmoveservice/psmbind/envconfig"
	"github.com/psmoveservice/psmbind/header"
	"github.com/psmoveservice/psmbind/logutil"
)

// options are the envconfig settings with any command line flags applied.
type options struct {
	Root      string
	BuildDir  string
	Header    string
	Constants string
	Library   string
	Output    string
	Package   string
	Platform  discover.Platform
	Suffixes  map[int]string
}

func loadOptions(cmd *cobra.Command) (*options, error) {
	o := &options{
		Root:      envconfig.Root,
		BuildDir:  envconfig.BuildDir,
		Header:    envconfig.Header,
		Constants: envconfig.Constants,
		Library:   envconfig.Library,
		Output:    envconfig.Output,
		Package:   envconfig.Package,
		Suffixes: map[int]string{
			32: envconfig.LibSuffix32,
			64: envconfig.LibSuffix64,
		},
	}

	flags := cmd.Flags()
	for name, dst := range map[string]*string{
		"root":    &o.Root,
		"output":  &o.Output,
		"package": &o.Package,
	} {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return nil, err
		}
		*dst = v
	}

	platform, err := flags.GetString("platform")
	if err != nil {
		return nil, err
	}
	if platform == "" {
		o.Platform, err = discover.HostPlatform()
	} else {
		o.Platform, err = discover.ParsePlatform(platform)
	}
	if err != nil {
		return nil, err
	}

	return o, nil
}

// underRoot resolves project relative paths against the root.
func (o *options) underRoot(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.Root, p)
}

func (o *options) locator() *discover.Locator {
	return &discover.Locator{
		Root:     o.Root,
		BuildDir: o.BuildDir,
		Base:     o.Library,
		Platform: o.Platform,
		Bitness:  discover.Bitness(),
		Suffixes: o.Suffixes,
	}
}

func (o *options) constants() ([]header.Constant, error) {
	return header.LoadConstants(o.underRoot(o.Constants))
}

func (o *options) normalizer() (*header.Normalizer, error) {
	constants, err := o.constants()
	if err != nil {
		return nil, err
	}
	return header.NewNormalizer(header.ConstantMap(constants)), nil
}

func (o *options) builder() (*build.Builder, error) {
	n, err := o.normalizer()
	if err != nil {
		return nil, err
	}
	return &build.Builder{
		Locator:    o.locator(),
		Normalizer: n,
		Header:     o.underRoot(o.Header),
		Output:     o.Output,
		Package:    o.Package,
	}, nil
}

func GenerateHandler(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}

	b, err := opts.builder()
	if err != nil {
		return err
	}
	if b.SkipCompile, err = cmd.Flags().GetBool("skip-compile"); err != nil {
		return err
	}

	res, err := b.Build(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "binding:  %s\n", res.Source)
	fmt.Fprintf(out, "library:  %s\n", res.Library)
	for _, s := range res.Skipped {
		fmt.Fprintf(out, "skipped:  %s (%v)\n", s.Func.Name, s.Reason)
	}
	return nil
}

func HeaderHandler(cmd *cobra.Command, args []string) error {
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
	_, err = fmt.Fprint(cmd.OutOrStdout(), text)
	return err
}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "psmbind",
		Short: "Generate Go bindings for the PSMoveClient C API",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Disable usage printing on errors
			cmd.SilenceUsage = true

			envconfig.LoadConfig()
			slog.SetDefault(logutil.NewLogger(os.Stderr, logutil.Level(envconfig.Debug)))
		},
	}

	rootCmd.PersistentFlags().String("root", "", "Root of the PSMoveService checkout (default $PSMBIND_ROOT)")
	rootCmd.PersistentFlags().String("platform", "", "Target operating system: windows, darwin or linux (default host)")

	cobra.EnableCommandSorting = false

	generateCmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"build"},
		Short:   "Generate and compile the binding package",
		Args:    cobra.NoArgs,
		RunE:    GenerateHandler,
	}
	generateCmd.Flags().StringP("output", "o", "", "Directory to write the binding to (default $PSMBIND_OUTPUT)")
	generateCmd.Flags().StringP("package", "p", "", "Go package name of the binding (default $PSMBIND_PACKAGE)")
	generateCmd.Flags().Bool("skip-compile", false, "Write sources and copy the library without compiling")

	locateCmd := &cobra.Command{
		Use:   "locate",
		Short: "Show where the native library is found",
		Args:  cobra.NoArgs,
		RunE:  LocateHandler,
	}
	locateCmd.Flags().BoolP("all", "a", false, "List every candidate on the search path")

	headerCmd := &cobra.Command{
		Use:   "header",
		Short: "Print the cleaned C API header",
		Args:  cobra.NoArgs,
		RunE:  HeaderHandler,
	}

	declsCmd := &cobra.Command{
		Use:   "decls",
		Short: "List the declarations in the cleaned header",
		Args:  cobra.NoArgs,
		RunE:  DeclsHandler,
	}

	constantsCmd := &cobra.Command{
		Use:   "constants",
		Short: "List the constants substituted into the header",
		Args:  cobra.NoArgs,
		RunE:  ConstantsHandler,
	}

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "List configuration variables",
		Args:  cobra.NoArgs,
		RunE:  EnvHandler,
	}

	rootCmd.AddCommand(
		generateCmd,
		locateCmd,
		headerCmd,
		declsCmd,
		constantsCmd,
		envCmd,
	)

	return rootCmd
}
