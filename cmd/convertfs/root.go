package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/absfs/convertfs"
	"github.com/absfs/convertfs/format/all"
	"github.com/absfs/osfs"
)

var (
	// Global flags.
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "convertfs FILE EXTENSION",
	Short: "Convert array and sparse matrix files by extension",
	Long: `Convertfs loads FILE with the format its extension names and writes it
next to FILE with EXTENSION in place of the old one.

Dense arrays convert between .npy, .npz and .txt; sparse matrices between
.mtx, .rua and the .csc/.csr/.bsr/.dia/.coo .npz layouts. Adding a
compression suffix (.gz, .bz2, .xz, .zst, .lz4, .br, .sz) compresses the
output; a compressed input is decompressed.

Examples:
  # Dense array to a gzipped text table
  convertfs data.npy .txt.gz

  # Matrix Market to SciPy CSR
  convertfs matrix.mtx .csr.npz

  # List every supported extension
  convertfs extensions`,
	Args:              cobra.MatchAll(cobra.ExactArgs(2), validExtension),
	ValidArgsFunction: completeArgs,
	RunE:              runConvert,
	SilenceErrors:     true,
	SilenceUsage:      true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file with compression levels")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func validExtension(cmd *cobra.Command, args []string) error {
	exts := all.Extensions()
	if !slices.Contains(exts, args[1]) {
		return fmt.Errorf("invalid extension %q, choose from %s", args[1], strings.Join(exts, ", "))
	}
	return nil
}

func completeArgs(cmd *cobra.Command, args []string, toComplete string) ([]cobra.Completion, cobra.ShellCompDirective) {
	switch len(args) {
	case 0:
		return nil, cobra.ShellCompDirectiveDefault
	case 1:
		return all.Extensions(), cobra.ShellCompDirectiveNoFileComp
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}

// newLogger writes console output to stderr, warnings only unless verbose.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level.SetLevel(zap.DebugLevel)
	}
	return cfg.Build()
}

// newConverter builds the default converter on the host filesystem.
func newConverter() (*convertfs.Converter, *zap.Logger, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}

	fsys, err := convertfs.NewOSFS()
	if err != nil {
		return nil, nil, err
	}
	config := convertfs.DefaultConfig()
	if configPath != "" {
		if config, err = convertfs.LoadConfig(fsys, osfs.FromNative(configPath)); err != nil {
			return nil, nil, err
		}
	}
	config.Logger = logger

	conv, err := all.New(fsys, config)
	if err != nil {
		return nil, nil, err
	}
	return conv, logger, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	conv, logger, err := newConverter()
	if err != nil {
		return err
	}
	defer logger.Sync()

	out, err := conv.ConvertFileExtension(osfs.FromNative(args[0]), args[1])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), osfs.ToNative(out))
	return nil
}
