// Command hashsecret prints the ADMIN_SECRET_DIGEST value for an admin
// secret.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terang55/rainbow-rich-auth-server/pkg/hash"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var useBcrypt bool

	cmd := &cobra.Command{
		Use:   "hashsecret [secret]",
		Short: "Print the digest to store in ADMIN_SECRET_DIGEST",
		Long: `Print the digest of an admin secret for ADMIN_SECRET_DIGEST.

The secret is read from the first argument, or from the first line of stdin
when no argument is given. By default the output is a SHA-256 hex digest;
--bcrypt prints a salted bcrypt hash instead.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			if useBcrypt {
				hashed, err := hash.HashPassword(secret)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), hashed)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash.Digest(secret))
			return nil
		},
	}
	cmd.Flags().BoolVar(&useBcrypt, "bcrypt", false, "print a bcrypt hash instead of a SHA-256 digest")
	return cmd
}

func readSecret(args []string, in io.Reader) (string, error) {
	if len(args) == 1 {
		if args[0] == "" {
			return "", errors.New("secret must not be empty")
		}
		return args[0], nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	secret := strings.TrimRight(line, "\r\n")
	if secret == "" {
		return "", errors.New("secret must not be empty")
	}
	return secret, nil
}
