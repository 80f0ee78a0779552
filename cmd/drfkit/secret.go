package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/drfkit/drfkit/internal/errors"
	"github.com/drfkit/drfkit/internal/secret"
)

func secretCmd() *cobra.Command {
	var (
		length int
		count  int
	)

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Print a new development SECRET_KEY",
		Long: `Print freshly generated Django SECRET_KEY values.

The keys carry the "django-insecure-" prefix. They are meant for local
development; production secrets belong in your deployment's secret store.

Examples:
  drfkit secret
  drfkit secret --count 3
  drfkit secret --length 64`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.New(errors.CodeInvalidConfigValue).
					WithDetail(fmt.Sprintf("--count must be at least 1, got %d", count))
			}
			if length < 1 {
				return errors.New(errors.CodeInvalidConfigValue).
					WithDetail(fmt.Sprintf("--length must be at least 1, got %d", length))
			}
			w := cmd.OutOrStdout()
			for i := 0; i < count; i++ {
				s, err := secret.GenerateN(length)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, secret.Prefix+s)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&length, "length", "l", secret.Length, "Number of random characters after the prefix")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of keys to print")

	return cmd
}
