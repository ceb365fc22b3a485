package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ogulcanaydogan/xcli/pkg/accounts"
	"github.com/spf13/cobra"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage stored credentials",
}

var accountsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Store a credential; the first one added becomes current",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsAdd,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	RunE:  runAccountsList,
}

var accountsUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch the current account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsUse,
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Delete a stored account",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRemove,
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsAddCmd, accountsListCmd, accountsUseCmd, accountsRemoveCmd)

	accountsAddCmd.Flags().String("type", string(accounts.AuthBearer), "Credential type (bearer, oauth2)")
	accountsAddCmd.Flags().String("access-token", "", "Access or bearer token")
	accountsAddCmd.Flags().String("refresh-token", "", "OAuth2 refresh token")
	accountsAddCmd.Flags().Duration("expires-in", 0, "OAuth2 token lifetime, e.g. 2h")
	_ = accountsAddCmd.MarkFlagRequired("access-token")
}

func accountStore() (*accounts.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return accounts.NewStore(cfg.Accounts.File), nil
}

func runAccountsAdd(cmd *cobra.Command, args []string) error {
	authType, _ := cmd.Flags().GetString("type")
	token, _ := cmd.Flags().GetString("access-token")
	refresh, _ := cmd.Flags().GetString("refresh-token")
	expiresIn, _ := cmd.Flags().GetDuration("expires-in")

	cred := accounts.Credential{
		Type:         accounts.AuthType(authType),
		Token:        token,
		RefreshToken: refresh,
	}
	if expiresIn > 0 {
		at := time.Now().Add(expiresIn).UTC()
		cred.ExpiresAt = &at
	}

	store, err := accountStore()
	if err != nil {
		return err
	}
	if err := store.Add(args[0], cred); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account %s saved to %s\n", args[0], store.Path())
	return nil
}

func runAccountsList(cmd *cobra.Command, _ []string) error {
	store, err := accountStore()
	if err != nil {
		return err
	}
	list, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No accounts. Use 'xcli accounts add' to store one.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\tNAME\tTYPE\tEXPIRES\n")
	for _, acct := range list {
		marker := ""
		if acct.Current {
			marker = "*"
		}
		expires := "-"
		if acct.ExpiresAt != nil {
			expires = humanize.Time(*acct.ExpiresAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", marker, acct.Name, acct.Type, expires)
	}
	return w.Flush()
}

func runAccountsUse(cmd *cobra.Command, args []string) error {
	store, err := accountStore()
	if err != nil {
		return err
	}
	if err := store.Use(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Now using %s\n", args[0])
	return nil
}

func runAccountsRemove(cmd *cobra.Command, args []string) error {
	store, err := accountStore()
	if err != nil {
		return err
	}
	if err := store.Remove(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}
