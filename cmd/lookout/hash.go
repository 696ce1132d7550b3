package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cuemby/lookout/pkg/api"
	"github.com/cuemby/lookout/pkg/security"
)

var hashCmd = &cobra.Command{
	Use:   "hash [password]",
	Short: "Print the canonical hash of a password",
	Long: `Print the canonical PBKDF2 hash of a password, suitable for the
credentials section of the configuration file.

When no argument is given the password is read from the first line of
standard input.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var password string
		if len(args) == 1 {
			password = args[0]
		} else {
			pw, err := readPassword(cmd.InOrStdin())
			if err != nil {
				return err
			}
			password = pw
		}

		hash, err := security.HashPassword(password)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the API routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		routes, err := api.BuildRouteTable(api.NewHandlers(nil, Version).Endpoints())
		if err != nil {
			return err
		}
		return printRoutes(cmd.OutOrStdout(), routes)
	},
}

// readPassword returns the first line of r without its line terminator
func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("password cannot be empty")
	}
	return line, nil
}

func printRoutes(w io.Writer, routes *api.RouteTable) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METHOD\tPATH\tNAME")
	for _, r := range routes.Routes() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Method, r.Path, r.Name)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nBound prefixes: %s\n", strings.Join(routes.Prefixes(), ", "))
	return nil
}
