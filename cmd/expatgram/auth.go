package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"expatgram/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored credentials",
	Long: `Manage the credentials the pipeline needs.

Credentials are stored in the system keychain when one is available.
Environment variables always work as a fallback:
  apify_token      -> APIFY_TOKEN
  gemini_api_key   -> GEMINI_API_KEY
  database_url     -> DATABASE_URL`,
}

// authSetCmd represents the auth set command
var authSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a credential in the system keychain",
	Example: `  expatgram auth set apify_token
  expatgram auth set gemini_api_key
  expatgram auth set database_url`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthSet,
}

// authShowCmd represents the auth show command
var authShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show which credentials are configured",
	Long:  `Show each required credential with a masked value, or mark it missing.`,
	RunE:  runAuthShow,
}

// authDeleteCmd represents the auth delete command
var authDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Remove a credential from the system keychain",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDelete,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authSetCmd)
	authCmd.AddCommand(authShowCmd)
	authCmd.AddCommand(authDeleteCmd)
}

func runAuthSet(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	manager := auth.NewManager()

	fmt.Printf("Value for %s: ", name)
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read value: %w", err)
	}
	value := strings.TrimSpace(input)

	if err := manager.Store(name, value); err != nil {
		return err
	}

	fmt.Printf("Stored %s (%s)\n", name, auth.MaskValue(value))
	return nil
}

func runAuthShow(cmd *cobra.Command, args []string) error {
	manager := auth.NewManager()

	fmt.Println("Configured credentials:")
	for _, name := range auth.Names {
		value, err := manager.Retrieve(name)
		if err != nil {
			fmt.Printf("  %-16s (missing)\n", name)
			continue
		}
		fmt.Printf("  %-16s %s\n", name, auth.MaskValue(value))
	}
	return nil
}

func runAuthDelete(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if err := auth.NewManager().Delete(name); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", name)
	return nil
}
