package main

import (
	"fmt"
	"io"
	"os"

	"balcao/internal/infra"
	"balcao/internal/kvstore"
	"balcao/internal/repository"
	"balcao/internal/seed"
	"balcao/internal/service"

	"github.com/spf13/cobra"
)

func newSeedCommand(opts *rootOptions) *cobra.Command {
	var file string
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Cria uma loja e seu cardápio a partir de um arquivo YAML",
		Long: `Cria a loja, o fluxo de pedidos, o horário de funcionamento, as categorias,
os produtos, as variações (inclusive compostas) e as embalagens descritos no arquivo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fh, err := os.Open(file)
			if err != nil {
				return err
			}
			defer fh.Close()
			fixture, err := seed.Parse(fh)
			if err != nil {
				return err
			}

			db, err := opts.database()
			if err != nil {
				return err
			}
			if migrate {
				if err := infra.RunMigrations(db); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}
			rdb, err := opts.redis()
			if err != nil {
				return err
			}

			stores := repository.NewStoreRepository(db)
			kv := kvstore.NewRedis(rdb, "balcao:")
			res, err := seed.Apply(cmd.Context(), seed.Deps{
				Stores:   stores,
				Products: repository.NewProductRepository(db),
				Flow:     service.NewOrderFlowService(stores, kv, opts.cfg.FlowCacheTTL()),
			}, fixture)
			if err != nil {
				return err
			}
			return opts.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "loja %s criada: %d categorias, %d produtos, %d variações\n",
					res.StoreID, res.Categories, res.Products, res.Variations)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "arquivo YAML da loja")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "aplica o schema antes de semear")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
