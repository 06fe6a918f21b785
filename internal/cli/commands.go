package cli

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Version is overridden at build time with -ldflags.
var Version = "v0.1.0"

var (
	// Global flags
	jsonOutput bool
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "paintstudio",
	Short: "PaintStudio CLI - manage and browse the paint colour catalog",
	Long: `PaintStudio CLI is a command line interface for the paint colour catalog.
It browses colours served by a running colour server, checks and normalises
catalog files before they are published, and clears the colour cache of every
running server.`,
	PersistentPreRunE: preRunHandlePersistents,
}

func init() {
	// Set up persistent flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "", "", "Path to configuration file to override default")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newColorsCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newCacheCmd())
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true // Prevent Cobra from printing the error
	rootCmd.SilenceUsage = true  // Prevent Cobra from printing usage on error

	err := rootCmd.Execute()
	if err != nil {
		if jsonOutput {
			kv := map[string]any{
				"result": 0,
				"error":  err.Error(),
			}
			printJSON(kv)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// needsConfig reports whether cmd talks to a server or to redis. Commands
// that only work on local files run without a CLI config.
func needsConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["config"] == "required" {
			return true
		}
	}
	return false
}

func preRunHandlePersistents(cmd *cobra.Command, args []string) error {
	// if a config file is provided, load config from config file
	if configFile == "" {
		var err error
		configFile, err = GetDefaultConfigPath()
		if err != nil {
			return err
		}
	}
	if !needsConfig(cmd) {
		return nil
	}
	if err := LoadConfig(configFile); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("paintstudio config file not found, configure it with \"paintstudio config create\" first")
		}
		return fmt.Errorf("unable to load config file: %w", err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of paintstudio",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				kv := map[string]string{
					"version": Version,
				}
				printJSON(kv)
			} else {
				cmd.Println("paintstudio " + Version)
			}
		},
	}
}

// printJSON prints the given value as indented JSON to stdout
func printJSON(data any) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(jsonData))
}

// printResult prints value wrapped in the {"result":1,"value":...} envelope.
func printResult(value any) {
	printJSON(map[string]any{
		"result": 1,
		"value":  value,
	})
}

// toYAML renders data through its JSON tags so YAML keys match the API.
func toYAML(data any) (string, error) {
	b, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to format YAML output: %w", err)
	}
	return string(b), nil
}
