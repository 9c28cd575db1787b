// Command ssoctl logs into the UC SSO provider from the terminal.
//
// Usage:
//
//	ssoctl [--config <path>] [--verbose] ticket <service-url>   obtain a service ticket
//	ssoctl [--config <path>] [--verbose] whoami                 print the user attribute table
//
// Both subcommands prompt for the username and password; the password is
// read without echo. The config path can also be set via the SSOCTL_CONFIG
// environment variable.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/phuslu/log"
	"golang.org/x/term"

	"github.com/ucchile/sso"
	"github.com/ucchile/sso/attributes"
)

func main() {
	fs := flag.NewFlagSet("ssoctl", flag.ExitOnError)
	configPath := fs.String("config", os.Getenv("SSOCTL_CONFIG"), "path to config file")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Usage = usage

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	args := fs.Args()
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	client, err := newClient(*configPath, *verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	subcmd := args[0]

	switch subcmd {
	case "ticket":
		if len(args) < 2 {
			usage()
			os.Exit(1)
		}
		err = cmdTicket(client, args[1])

	case "whoami":
		err = cmdWhoami(client)

	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", subcmd)
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient(configPath string, verbose bool) (*sso.Client, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	client := &sso.Client{
		Endpoint: cfg.Endpoint,
		Timeout:  cfg.Timeout(),
	}
	if verbose {
		client.Logger = &log.Logger{
			Level:  log.DebugLevel,
			Writer: &log.ConsoleWriter{Writer: os.Stderr},
		}
	}
	return client, nil
}

func cmdTicket(client *sso.Client, serviceURL string) error {
	username, password, err := promptCredentials()
	if err != nil {
		return err
	}

	ticket, err := client.GetTicket(context.Background(), username, password, serviceURL)
	if err != nil {
		return err
	}

	fmt.Printf("Ticket: %s\n", ticket.Ticket)
	fmt.Printf("Authenticated URL: %s\n", ticket.ServiceURL)
	return nil
}

func cmdWhoami(client *sso.Client) error {
	username, password, err := promptCredentials()
	if err != nil {
		return err
	}

	attrs, err := client.GetUserInfo(context.Background(), username, password)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(w, "ATTRIBUTE\tVALUE"); err != nil {
		return err
	}
	for _, k := range keys {
		v := attrs[attributes.Key(k)]
		rendered := v.String()
		if v.IsList() {
			rendered = strings.Join(v.Strings(), ", ")
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\n", k, rendered); err != nil {
			return err
		}
	}
	return w.Flush()
}

func promptCredentials() (username, password string, err error) {
	fmt.Fprint(os.Stderr, "Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, err = reader.ReadString('\n')
	if err != nil {
		return "", "", fmt.Errorf("read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return "", "", fmt.Errorf("username must not be empty")
	}

	password, err = promptPassword("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  ssoctl [--config <path>] [--verbose] ticket <service-url>   obtain a service ticket
  ssoctl [--config <path>] [--verbose] whoami                 print the user attribute table

The config path can also be set via SSOCTL_CONFIG.
`)
}
