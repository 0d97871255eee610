package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/benx421/payment-gateway/checkout/internal/models"
	"github.com/benx421/payment-gateway/checkout/internal/repository"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [transactionId]",
		Short: "Print a stored transaction as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _, database, err := loadRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer database.Close() //nolint:errcheck // process is exiting

			txn, err := repository.NewTransactionRepository(database).FindByTxnID(cmd.Context(), args[0])
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("transaction %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to load transaction: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(txn)
		},
	}
}
