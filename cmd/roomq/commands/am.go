package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/roomq/am"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage roomq configuration",
	Long: `am - Manage roomq configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (ROOMQ_* prefix, plus NEO4J_* and OPENAI_API_KEY)
3. Project config (./am.toml, searched upwards)
4. User config (~/.roomq/am.toml)
5. System config (/etc/roomq/am.toml)
6. Default values

Examples:
  roomq am show                    # Show current configuration
  roomq am show --format json      # Show configuration in JSON format
  roomq am get forecast.threshold  # Get specific config value
  roomq am validate                # Validate current configuration`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration from all sources, with credentials masked",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., timeseries.dir, classifier.strategy)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show which configuration files are checked",
	RunE:  runAmWhere,
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	data, err := marshalConfig(cfg.Redacted(), configFormat)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

// marshalConfig renders cfg in one of the supported formats
func marshalConfig(cfg am.Config, format string) ([]byte, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		return append(data, '\n'), nil
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		return append([]byte("# roomq configuration\n"), data...), nil
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		return append([]byte("# roomq configuration\n"), data...), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
}

func runAmGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if _, err := am.Load(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !am.GetViper().IsSet(key) {
		return fmt.Errorf("configuration key %q not found", key)
	}
	fmt.Println(am.Get(key))
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	fmt.Println("✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	fmt.Println("Configuration files (later overrides earlier):")
	for _, path := range am.ConfigPaths() {
		status := "missing"
		if _, err := os.Stat(path); err == nil {
			status = "found"
		}
		fmt.Printf("  [%-7s] %s\n", status, path)
	}
	fmt.Println("Environment: ROOMQ_* variables, NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD, OPENROUTER_API_KEY, OPENAI_API_KEY")
	return nil
}
