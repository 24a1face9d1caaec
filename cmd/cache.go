package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spigell/resume-ranker/internal/secrets"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errAborted = errors.New("aborted by user")

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Administer the embedding cache of a running service",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the embedding cache of a running service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return clearCache(cmd)
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	cacheClearCmd.Flags().StringP("server", "s", "http://localhost:8080", "base URL of the running service")
	cacheClearCmd.Flags().StringP("token-file", "t", "", "file with the admin token. Default is unset.")
	cacheClearCmd.Flags().BoolP("auto-aprove", "y", false, "do not ask for confirmation")
}

func clearCache(cmd *cobra.Command) error {
	serverURL := cmd.Flag("server").Value.String()

	if cmd.Flag("auto-aprove").Value.String() == "false" {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Clear the embedding cache at %s?", serverURL),
			Items: []string{PromptYes, PromptNo},
		}

		_, action, err := prompt.Run()
		if err != nil {
			return err
		}

		if action != PromptYes {
			return errAborted
		}
	}

	req, err := http.NewRequest(http.MethodPost, serverURL+"/clear-cache", nil)
	if err != nil {
		return err
	}

	token, err := resolveCacheAdminToken(cmd)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling clear-cache endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("clear-cache failed with status %s: %s", resp.Status, body)
	}

	var result struct {
		Message        string `json:"message"`
		ClearedEntries int    `json:"cleared_entries"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("parsing clear-cache response: %w", err)
	}

	fmt.Printf("%s: %d entries removed\n", result.Message, result.ClearedEntries)
	return nil
}

// resolveCacheAdminToken prefers the flag over the configuration. A missing
// token is not an error here: the endpoint may be intentionally open.
func resolveCacheAdminToken(cmd *cobra.Command) (string, error) {
	file := cmd.Flag("token-file").Value.String()
	if file == "" {
		file = viper.GetString("admin-token-file")
	}

	if file == "" {
		return "", nil
	}

	return secrets.Load(secrets.Source{
		Name: "admin token",
		File: file,
	})
}
