package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fystack/solana-studio/internal/account"
)

var (
	accountLabel  string
	showSecret    bool
	watchOnly     bool
	confirmTx     bool
	offlineList   bool
	airdropAmount string
)

var accountsCmd = &cobra.Command{
	Use:     "accounts",
	Aliases: []string{"account", "acct"},
	Short:   "Manage studio accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts with live balances",
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		var views []account.AccountWithBalance
		if offlineList {
			for _, acct := range a.accounts.ListAccounts() {
				views = append(views, account.AccountWithBalance{Account: acct, Balance: acct.Balance, SOL: account.LamportsToSOL(acct.Balance)})
			}
		} else {
			views = a.accounts.GetAccountsWithBalances(cmd.Context())
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LABEL\tADDRESS\tSOL\tCREATED")
		for _, v := range views {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Account.Label, v.Account.Address, v.DisplaySOL(), v.Account.CreatedAt.Format("2006-01-02 15:04"))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		return a.save()
	}),
}

var accountsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Generate a new keypair and register it",
	RunE: withApp(func(_ *cobra.Command, a *app, _ []string) error {
		acct, kp, err := a.accounts.CreateAccount(accountLabel)
		if err != nil {
			return err
		}
		fmt.Printf("created %s (%s)\n", acct.Address, acct.Label)
		if showSecret {
			fmt.Printf("secret: %s\n", kp.Secret())
		}
		return a.save()
	}),
}

var accountsImportCmd = &cobra.Command{
	Use:   "import <secret|address>",
	Short: "Import a base58 or JSON array secret key, or watch an address with --watch",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
		var (
			acct account.Account
			err  error
		)
		if watchOnly {
			acct, err = a.accounts.WatchAccount(args[0], accountLabel)
		} else {
			acct, err = a.accounts.ImportAccount(args[0], accountLabel)
		}
		if err != nil {
			return err
		}
		fmt.Printf("imported %s (%s)\n", acct.Address, acct.Label)
		return a.save()
	}),
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove <address>",
	Short: "Remove an account from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
		if !a.accounts.RemoveAccount(args[0]) {
			fmt.Printf("%s is not registered\n", args[0])
			return nil
		}
		fmt.Printf("removed %s\n", args[0])
		return a.save()
	}),
}

var accountsRenameCmd = &cobra.Command{
	Use:   "rename <address> <label>",
	Short: "Change an account label",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(_ *cobra.Command, a *app, args []string) error {
		if err := a.accounts.RenameAccount(args[0], args[1]); err != nil {
			return err
		}
		return a.save()
	}),
}

var accountsAirdropCmd = &cobra.Command{
	Use:   "airdrop <address>",
	Short: "Request an airdrop on devnet, testnet or a local validator",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		lamports, err := account.ParseSOL(airdropAmount)
		if err != nil {
			return err
		}
		sig, err := a.accounts.RequestAirdrop(cmd.Context(), args[0], lamports)
		if err != nil {
			return err
		}
		fmt.Printf("airdrop %s SOL: %s\n", account.FormatSOL(lamports), sig)
		return confirm(cmd, a, sig)
	}),
}

var accountsTransferCmd = &cobra.Command{
	Use:   "transfer <from> <to> <sol>",
	Short: "Transfer SOL from a registered account",
	Args:  cobra.ExactArgs(3),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		lamports, err := account.ParseSOL(args[2])
		if err != nil {
			return err
		}
		sig, err := a.accounts.Transfer(cmd.Context(), args[0], args[1], lamports)
		if err != nil {
			return err
		}
		fmt.Printf("transfer %s SOL: %s\n", account.FormatSOL(lamports), sig)
		return confirm(cmd, a, sig)
	}),
}

var accountsBalanceCmd = &cobra.Command{
	Use:   "balance <address>",
	Short: "Fetch a single balance",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		lamports, err := a.accounts.GetBalance(cmd.Context(), strings.TrimSpace(args[0]))
		if err != nil {
			return err
		}
		fmt.Printf("%s SOL (%d lamports)\n", account.FormatSOL(lamports), lamports)
		return a.save()
	}),
}

func init() {
	accountsCreateCmd.Flags().StringVarP(&accountLabel, "label", "l", "", "account label")
	accountsCreateCmd.Flags().BoolVar(&showSecret, "show-secret", false, "print the generated secret key")
	accountsImportCmd.Flags().StringVarP(&accountLabel, "label", "l", "", "account label")
	accountsImportCmd.Flags().BoolVar(&watchOnly, "watch", false, "register a bare address without a signing key")
	accountsListCmd.Flags().BoolVar(&offlineList, "offline", false, "show cached balances without querying the network")
	accountsAirdropCmd.Flags().StringVar(&airdropAmount, "sol", "1", "amount of SOL to request")
	accountsAirdropCmd.Flags().BoolVar(&confirmTx, "confirm", false, "wait for the signature to reach the configured commitment")
	accountsTransferCmd.Flags().BoolVar(&confirmTx, "confirm", false, "wait for the signature to reach the configured commitment")

	accountsCmd.AddCommand(
		accountsListCmd,
		accountsCreateCmd,
		accountsImportCmd,
		accountsRemoveCmd,
		accountsRenameCmd,
		accountsAirdropCmd,
		accountsTransferCmd,
		accountsBalanceCmd,
	)
}

func withApp(run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, a, args)
	}
}

func confirm(cmd *cobra.Command, a *app, sig string) error {
	if !confirmTx {
		return nil
	}
	ok, err := a.accounts.ConfirmTransaction(cmd.Context(), sig)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s not confirmed within %s", sig, a.cfg.RPC.ConfirmTimeout)
	}
	fmt.Println("confirmed")
	return nil
}
