package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	userID  string
	role    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "corebank-cli",
		Short: "CoreBank ledger CLI tool",
		Long:  `A command line interface for interacting with the CoreBank ledger API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the ledger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "cli", "User ID sent as X-User-ID")
	rootCmd.PersistentFlags().StringVar(&role, "role", "admin", "Role sent as X-User-Role")

	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	conservationCmd := &cobra.Command{
		Use:   "conservation",
		Short: "Check that no money has been created or destroyed",
		Run: func(cmd *cobra.Command, args []string) {
			checkConservation()
		},
	}

	ledgerCmd.AddCommand(conservationCmd)
	rootCmd.AddCommand(ledgerCmd)

	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Account operations",
	}

	historyCmd := &cobra.Command{
		Use:   "history <account-id>",
		Short: "Show an account's transaction history",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get(fmt.Sprintf("/api/v1/accounts/%s/transactions", args[0]))
		},
	}

	summaryCmd := &cobra.Command{
		Use:   "summary <account-id>",
		Short: "Show an account's monthly summary",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			get(fmt.Sprintf("/api/v1/accounts/%s/summary", args[0]))
		},
	}

	accountCmd.AddCommand(historyCmd)
	accountCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(accountCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func request(path string) ([]byte, int, error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequest(http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-User-ID", userID)
	req.Header.Set("X-User-Role", role)

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	return body, resp.StatusCode, err
}

func get(path string) {
	body, status, err := request(path)
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}
	if status != http.StatusOK {
		fmt.Printf("Request failed (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var pretty map[string]any
	if err := json.Unmarshal(body, &pretty); err == nil {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
		return
	}

	var list []any
	if err := json.Unmarshal(body, &list); err == nil {
		out, _ := json.MarshalIndent(list, "", "  ")
		fmt.Println(string(out))
		return
	}

	fmt.Println(string(body))
}

func checkConservation() {
	body, status, err := request("/api/v1/ledger/conservation")
	if err != nil {
		fmt.Printf("Error making request: %v\n", err)
		os.Exit(1)
	}

	if status != http.StatusOK {
		fmt.Printf("Conservation check FAILED (Status: %d)\nResponse: %s\n", status, string(body))
		os.Exit(1)
	}

	var result map[string]any
	if err := json.Unmarshal(body, &result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		os.Exit(1)
	}

	consistent, _ := result["consistent"].(bool)
	if !consistent {
		fmt.Printf("Conservation check FAILED\nResponse: %s\n", string(body))
		os.Exit(1)
	}

	fmt.Printf("Conservation check PASSED\n")
	fmt.Printf("Total balance: %v\n", result["total_balance"])
	fmt.Printf("Total fees:    %v\n", result["total_fees"])
}
