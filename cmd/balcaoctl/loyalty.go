package main

import (
	"fmt"
	"io"

	"balcao/internal/dto"
	"balcao/internal/repository"
	"balcao/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newLoyaltyCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loyalty",
		Short: "Programa de fidelidade",
	}
	cmd.AddCommand(newLoyaltyAuditCommand(opts))
	return cmd
}

func newLoyaltyAuditCommand(opts *rootOptions) *cobra.Command {
	var storeFlag, customerFlag string

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Confere o saldo de pontos dos clientes contra o extrato",
		Long: `Compara o saldo de cada cliente com a soma das transações de fidelidade.
Sai com erro quando algum cliente está divergente.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			storeID, err := uuid.Parse(storeFlag)
			if err != nil {
				return fmt.Errorf("--store: %w", err)
			}
			db, err := opts.database()
			if err != nil {
				return err
			}
			svc := service.NewLoyaltyService(repository.NewCustomerRepository(db), repository.NewLoyaltyRepository(db))

			var audits []dto.LoyaltyAuditResponse
			if customerFlag != "" {
				customerID, err := uuid.Parse(customerFlag)
				if err != nil {
					return fmt.Errorf("--customer: %w", err)
				}
				a, err := svc.Audit(cmd.Context(), storeID, customerID)
				if err != nil {
					return err
				}
				audits = append(audits, *a)
			} else if audits, err = svc.AuditStore(cmd.Context(), storeID); err != nil {
				return err
			}

			drift := 0
			for _, a := range audits {
				if !a.Consistent {
					drift++
				}
			}
			if err := opts.emit(cmd.OutOrStdout(), audits, func(w io.Writer) {
				for _, a := range audits {
					mark := "ok"
					if !a.Consistent {
						mark = "DIVERGENTE"
					}
					fmt.Fprintf(w, "%s  saldo=%d  extrato=%d  %s\n", a.CustomerID, a.Balance, a.LedgerSum, mark)
				}
				fmt.Fprintf(w, "%d cliente(s), %d divergente(s)\n", len(audits), drift)
			}); err != nil {
				return err
			}
			if drift > 0 {
				return fmt.Errorf("%d cliente(s) com saldo divergente", drift)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&storeFlag, "store", "", "ID da loja")
	cmd.Flags().StringVar(&customerFlag, "customer", "", "audita só este cliente")
	_ = cmd.MarkFlagRequired("store")
	return cmd
}
