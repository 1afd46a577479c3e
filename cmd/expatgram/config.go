package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"expatgram/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage expatgram configuration.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (EXPATGRAM_*)
  - .env file
  - Configuration file
  - Default values

Credentials never live in the configuration file; see 'expatgram auth'.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	RunE:  runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

const exampleConfig = `# expatgram configuration file
#
# Every value here can also be set through environment variables
# prefixed with EXPATGRAM_, for example EXPATGRAM_REGION.
# Credentials (APIFY_TOKEN, GEMINI_API_KEY, DATABASE_URL) are resolved
# from the system keychain or the environment, never from this file.

# Scrape provider settings
apify:
  actor_id: "shu8hvrXbJbY3Eb9W"
  poll_interval: 5s
  request_timeout: 30s
  requests_per_minute: 60
  use_proxy: true

# Language model settings
gemini:
  model: "gemini-flash-latest"
  temperature: 0.4
  top_p: 1
  top_k: 32
  max_output_tokens: 8192
  request_delay: 20s
  image_max_bytes: 5242880
  image_timeout: 10s

# Fetch stage settings
fetch:
  region: "Toronto"
  # targets: ["#torontojobs", "@blogto"]
  recency_window_days: 14
  max_posts: 10
  skip_duplicates: true

# Storage settings
database:
  table: "posts"

# Logging configuration
logging:
  level: "info"
  file: ""

# Extra regions, merged over the built-in table
# regions:
#   Berlin:
#     hashtags: ["berlinjobs", "ベルリン生活"]
#     accounts: ["berlinlife"]
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "expatgram.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	fmt.Println("Configuration file created:", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store credentials with 'expatgram auth set'")
	fmt.Println("2. Run the pipeline with 'expatgram run'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (EXPATGRAM_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
	return nil
}
